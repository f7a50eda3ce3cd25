// Package groups backs the workspace detail header and its rename and
// delete actions.
package groups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rflorenc/inventory-console/internal/featureflags"
	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/rbac"
)

// ListPath is where the console goes after a workspace is deleted.
const ListPath = "/groups"

var (
	ErrNotPermitted = errors.New("not permitted to modify workspace")
	ErrUngrouped    = errors.New("the ungrouped workspace cannot be renamed or deleted")
	ErrEmptyName    = errors.New("workspace name is required")
)

// Breadcrumb is one link in the header trail.
type Breadcrumb struct {
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// Header is the workspace header view.
type Header struct {
	GroupID         string       `json:"group_id"`
	Title           string       `json:"title"`
	Loading         bool         `json:"loading"`
	CanRead         bool         `json:"can_read"`
	CanModify       bool         `json:"can_modify"`
	Ungrouped       bool         `json:"ungrouped"`
	ActionsDisabled bool         `json:"actions_disabled"`
	RenameDisabled  bool         `json:"rename_disabled"`
	DeleteDisabled  bool         `json:"delete_disabled"`
	Breadcrumbs     []Breadcrumb `json:"breadcrumbs"`
}

// Detail is the request state of the workspace lookup.
type Detail struct {
	Loading   bool
	Name      string
	Found     bool
	Ungrouped bool
}

// BuildHeader derives the header from permissions, lookup state and flags.
// Users who can't read the workspace only ever see its ID; a failed lookup
// also falls back to the ID.
func BuildHeader(groupID string, canRead, canModify bool, d Detail, kessel bool) Header {
	h := Header{
		GroupID:   groupID,
		CanRead:   canRead,
		CanModify: canModify,
		Ungrouped: d.Ungrouped,
	}
	switch {
	case !canRead:
		h.Title = groupID
	case d.Loading:
		h.Loading = true
	case d.Name != "":
		h.Title = d.Name
	default:
		h.Title = groupID
	}
	h.ActionsDisabled = !canModify || d.Loading
	locked := kessel && d.Ungrouped
	h.RenameDisabled = h.ActionsDisabled || locked
	h.DeleteDisabled = h.ActionsDisabled || locked
	h.Breadcrumbs = []Breadcrumb{
		{Title: "Workspaces", Link: ListPath},
		{Title: h.Title, Active: true},
	}
	return h
}

// API is the slice of the inventory client the header needs.
type API interface {
	FetchGroup(ctx context.Context, id string) (*inventory.GroupsPage, error)
	RenameGroup(ctx context.Context, id, name string) error
	DeleteGroups(ctx context.Context, ids []string) error
}

// Permissions answers RBAC questions.
type Permissions interface {
	Check(ctx context.Context, required []rbac.Required) (bool, error)
}

// Service loads the header and performs workspace actions.
type Service struct {
	API         API
	Permissions Permissions
	Flags       featureflags.Source
	Notifier    notify.Dispatcher
	Logger      *slog.Logger
}

func (s *Service) allowed(ctx context.Context, req []rbac.Required) bool {
	ok, err := s.Permissions.Check(ctx, req)
	if err != nil {
		s.Logger.Warn("permission check failed", "error", err)
		return false
	}
	return ok
}

func (s *Service) detail(ctx context.Context, id string) Detail {
	page, err := s.API.FetchGroup(ctx, id)
	if err != nil {
		s.Logger.Warn("fetching workspace failed", "group_id", id, "error", err)
		return Detail{}
	}
	if len(page.Results) == 0 {
		return Detail{}
	}
	g := page.Results[0]
	return Detail{Name: g.Name, Found: true, Ungrouped: g.Ungrouped}
}

// Header builds the header for a workspace. The lookup is skipped when the
// user can't read it.
func (s *Service) Header(ctx context.Context, id string) Header {
	canRead := s.allowed(ctx, rbac.ReadGroup(id))
	canModify := s.allowed(ctx, rbac.ModifyGroup(id))
	var d Detail
	if canRead {
		d = s.detail(ctx, id)
	}
	return BuildHeader(id, canRead, canModify, d, s.Flags.Enabled(featureflags.KesselMigration))
}

// guard checks permission and the ungrouped lock before an action.
func (s *Service) guard(ctx context.Context, id string) error {
	if !s.allowed(ctx, rbac.ModifyGroup(id)) {
		return ErrNotPermitted
	}
	if s.Flags.Enabled(featureflags.KesselMigration) {
		if d := s.detail(ctx, id); d.Ungrouped {
			return ErrUngrouped
		}
	}
	return nil
}

// Rename changes the workspace name and returns the reloaded header.
func (s *Service) Rename(ctx context.Context, id, name string) (Header, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Header{}, ErrEmptyName
	}
	if err := s.guard(ctx, id); err != nil {
		return Header{}, err
	}
	if err := s.API.RenameGroup(ctx, id, name); err != nil {
		s.Notifier.Dispatch(notify.Notification{
			Key:         "rename-group-failed",
			Variant:     notify.Danger,
			Title:       "Failed to rename workspace",
			Dismissable: true,
		})
		return Header{}, fmt.Errorf("renaming workspace: %w", err)
	}
	s.Notifier.Dispatch(notify.Notification{
		Key:         "rename-group",
		Variant:     notify.Success,
		Title:       fmt.Sprintf("Workspace renamed to %s", name),
		Dismissable: true,
	})
	s.Logger.Info("workspace renamed", "group_id", id)
	return s.Header(ctx, id), nil
}

// Delete removes workspaces and returns where the console should go next.
func (s *Service) Delete(ctx context.Context, ids []string) (string, error) {
	for _, id := range ids {
		if err := s.guard(ctx, id); err != nil {
			return "", err
		}
	}
	if err := s.API.DeleteGroups(ctx, ids); err != nil {
		s.Notifier.Dispatch(notify.Notification{
			Key:         "delete-group-failed",
			Variant:     notify.Danger,
			Title:       "Failed to delete workspace",
			Dismissable: true,
		})
		return "", fmt.Errorf("deleting workspaces: %w", err)
	}
	title := "Workspace deleted"
	if len(ids) > 1 {
		title = fmt.Sprintf("%d workspaces deleted", len(ids))
	}
	s.Notifier.Dispatch(notify.Notification{
		Key:         "delete-group",
		Variant:     notify.Success,
		Title:       title,
		Dismissable: true,
	})
	s.Logger.Info("workspaces deleted", "count", len(ids))
	return ListPath, nil
}
