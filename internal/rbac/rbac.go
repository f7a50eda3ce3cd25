// Package rbac decides whether the current user holds the permissions a
// console action needs.
package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/rflorenc/inventory-console/internal/inventory"
)

const groupIDKey = "group.id"

// Required is a permission an action needs, optionally scoped to one
// resource (a workspace ID).
type Required struct {
	Permission string
	ResourceID string
}

// ReadGroup is needed to show a workspace's details.
func ReadGroup(groupID string) []Required {
	return []Required{{Permission: "inventory:groups:read", ResourceID: groupID}}
}

// ModifyGroup is needed to rename or delete a workspace.
func ModifyGroup(groupID string) []Required {
	return []Required{{Permission: "inventory:groups:write", ResourceID: groupID}}
}

// ModifyStaleness is needed to edit organization staleness settings.
func ModifyStaleness() []Required {
	return []Required{
		{Permission: "staleness:staleness:write"},
		{Permission: "inventory:hosts:write"},
	}
}

// DeleteSystems is needed to remove hosts.
func DeleteSystems() []Required {
	return []Required{{Permission: "inventory:hosts:write"}}
}

// HasAccess reports whether every required permission is granted.
func HasAccess(granted []inventory.Access, required []Required) bool {
	for _, req := range required {
		if !satisfied(granted, req) {
			return false
		}
	}
	return true
}

func satisfied(granted []inventory.Access, req Required) bool {
	for _, g := range granted {
		if !permissionMatches(g.Permission, req.Permission) {
			continue
		}
		if req.ResourceID == "" || len(g.ResourceDefinitions) == 0 {
			return true
		}
		for _, rd := range g.ResourceDefinitions {
			if definitionCovers(rd.AttributeFilter, req.ResourceID) {
				return true
			}
		}
	}
	return false
}

// permissionMatches compares app:resource:verb triples; "*" in a granted
// segment matches anything.
func permissionMatches(granted, required string) bool {
	g := strings.Split(granted, ":")
	r := strings.Split(required, ":")
	if len(g) != 3 || len(r) != 3 {
		return false
	}
	for i := range g {
		if g[i] != "*" && g[i] != r[i] {
			return false
		}
	}
	return true
}

func definitionCovers(f inventory.AttributeFilter, id string) bool {
	if f.Key != groupIDKey {
		return false
	}
	switch f.Operation {
	case "equal":
		s, ok := f.Value.(string)
		return ok && s == id
	case "in":
		switch v := f.Value.(type) {
		case []interface{}:
			for _, e := range v {
				if s, ok := e.(string); ok && s == id {
					return true
				}
			}
		case string:
			for _, s := range strings.Split(v, ",") {
				if strings.TrimSpace(s) == id {
					return true
				}
			}
		}
	}
	return false
}

// AccessSource fetches the current user's grants.
type AccessSource interface {
	FetchAccess(ctx context.Context, application string) ([]inventory.Access, error)
}

// Checker answers permission questions against the RBAC API.
type Checker struct {
	Source AccessSource
}

// NewChecker creates a Checker.
func NewChecker(src AccessSource) *Checker {
	return &Checker{Source: src}
}

// Check fetches grants and evaluates the required set. Failures deny access.
func (c *Checker) Check(ctx context.Context, required []Required) (bool, error) {
	granted, err := c.Source.FetchAccess(ctx, applications(required))
	if err != nil {
		return false, fmt.Errorf("fetching access: %w", err)
	}
	return HasAccess(granted, required), nil
}

func applications(required []Required) string {
	seen := map[string]bool{}
	var apps []string
	for _, r := range required {
		app, _, _ := strings.Cut(r.Permission, ":")
		if !seen[app] {
			seen[app] = true
			apps = append(apps, app)
		}
	}
	return strings.Join(apps, ",")
}
