package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rflorenc/inventory-console/internal/models"
)

const (
	hostsPath     = "/api/inventory/v1/hosts"
	groupsPath    = "/api/inventory/v1/groups"
	stalenessPath = "/api/inventory/v1/account/staleness"
	accessPath    = "/api/rbac/v1/access/"
)

// Staleness is the organization's staleness record. Values are seconds
// keyed by API field name.
type Staleness struct {
	ID     string
	Values map[string]int64
}

func parseStaleness(body []byte) (*Staleness, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing staleness: %w", err)
	}
	s := &Staleness{Values: map[string]int64{}}
	for k, v := range raw {
		if k == "id" {
			s.ID = fmt.Sprint(v)
			continue
		}
		if n, ok := v.(float64); ok {
			s.Values[k] = int64(n)
		}
	}
	return s, nil
}

// FetchStaleness returns the organization's current staleness settings. An
// organization with no record gets id "system_default".
func (c *Client) FetchStaleness(ctx context.Context) (*Staleness, error) {
	body, err := c.Get(ctx, stalenessPath, nil)
	if err != nil {
		return nil, err
	}
	return parseStaleness(body)
}

// FetchDefaultStaleness returns the system defaults in seconds.
func (c *Client) FetchDefaultStaleness(ctx context.Context) (map[string]int64, error) {
	body, err := c.Get(ctx, stalenessPath+"/defaults", nil)
	if err != nil {
		return nil, err
	}
	s, err := parseStaleness(body)
	if err != nil {
		return nil, err
	}
	return s.Values, nil
}

// PostStaleness creates the organization's staleness record.
func (c *Client) PostStaleness(ctx context.Context, values map[string]int64) error {
	_, err := c.Post(ctx, stalenessPath, values)
	return err
}

// UpdateStaleness patches an existing staleness record.
func (c *Client) UpdateStaleness(ctx context.Context, values map[string]int64) error {
	_, err := c.Patch(ctx, stalenessPath, values)
	return err
}

// FetchEdgeSystems returns how many immutable (edge) hosts the
// organization has.
func (c *Client) FetchEdgeSystems(ctx context.Context) (int, error) {
	params := url.Values{
		"filter[system_profile][host_type]": {"edge"},
		"per_page":                          {"1"},
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := c.GetJSON(ctx, hostsPath, params, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// SystemsQuery selects one page of hosts.
type SystemsQuery struct {
	Page        int
	PerPage     int
	OrderBy     string
	OrderHow    string // "ASC" or "DESC"
	DisplayName string
	GroupNames  []string
	OS          []string
	Staleness   []string
	Tags        []string
	Workloads   map[string]string // system_profile filter path -> value
}

// Values encodes the query as upstream parameters.
func (q SystemsQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
		if q.OrderHow != "" {
			v.Set("order_how", strings.ToUpper(q.OrderHow))
		}
	}
	if q.DisplayName != "" {
		v.Set("display_name", q.DisplayName)
	}
	for _, g := range q.GroupNames {
		v.Add("group_name", g)
	}
	for _, s := range q.Staleness {
		v.Add("staleness", s)
	}
	for _, t := range q.Tags {
		v.Add("tags", t)
	}
	for _, os := range q.OS {
		v.Add("filter[system_profile][operating_system][RHEL][version][eq][]", os)
	}
	for path, val := range q.Workloads {
		v.Set("filter[system_profile]"+path, val)
	}
	return v
}

// SystemsPage is one page of hosts.
type SystemsPage struct {
	Total   int               `json:"total"`
	Count   int               `json:"count"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Results []models.Resource `json:"results"`
}

// FetchSystems lists hosts.
func (c *Client) FetchSystems(ctx context.Context, q SystemsQuery) (*SystemsPage, error) {
	var page SystemsPage
	if err := c.GetJSON(ctx, hostsPath, q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteSystems removes hosts by ID.
func (c *Client) DeleteSystems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.Delete(ctx, hostsPath+"/"+joinIDs(ids))
}

// FetchSystemProfile returns the system_profile object of one host.
func (c *Client) FetchSystemProfile(ctx context.Context, id string) (models.Resource, error) {
	var resp struct {
		Results []struct {
			ID            string          `json:"id"`
			SystemProfile models.Resource `json:"system_profile"`
		} `json:"results"`
	}
	if err := c.GetJSON(ctx, hostsPath+"/"+url.PathEscape(id)+"/system_profile", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &APIError{Method: "GET", Path: hostsPath + "/" + id + "/system_profile", StatusCode: 404, Body: "host not found"}
	}
	if resp.Results[0].SystemProfile == nil {
		return models.Resource{}, nil
	}
	return resp.Results[0].SystemProfile, nil
}

// Group is a workspace.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HostCount int    `json:"host_count"`
	Ungrouped bool   `json:"ungrouped"`
}

// GroupsPage wraps group lookups.
type GroupsPage struct {
	Total   int     `json:"total"`
	Results []Group `json:"results"`
}

// FetchGroup looks up a workspace by ID.
func (c *Client) FetchGroup(ctx context.Context, id string) (*GroupsPage, error) {
	var page GroupsPage
	if err := c.GetJSON(ctx, groupsPath+"/"+url.PathEscape(id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RenameGroup changes a workspace's name.
func (c *Client) RenameGroup(ctx context.Context, id, name string) error {
	_, err := c.Patch(ctx, groupsPath+"/"+url.PathEscape(id), map[string]string{"name": name})
	return err
}

// DeleteGroups removes workspaces by ID.
func (c *Client) DeleteGroups(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.Delete(ctx, groupsPath+"/"+joinIDs(ids))
}

// AttributeFilter scopes a permission to resources.
type AttributeFilter struct {
	Key       string      `json:"key"`
	Operation string      `json:"operation"`
	Value     interface{} `json:"value"` // string or list of strings
}

// ResourceDefinition wraps an attribute filter.
type ResourceDefinition struct {
	AttributeFilter AttributeFilter `json:"attributeFilter"`
}

// Access is one permission granted to the current user.
type Access struct {
	Permission          string               `json:"permission"`
	ResourceDefinitions []ResourceDefinition `json:"resourceDefinitions"`
}

// FetchAccess lists the permissions the current user holds for the given
// applications (comma separated).
func (c *Client) FetchAccess(ctx context.Context, application string) ([]Access, error) {
	params := url.Values{"application": {application}, "limit": {"1000"}}
	return GetAll[Access](ctx, c, accessPath, params)
}

func joinIDs(ids []string) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	return strings.Join(escaped, ",")
}

// Ping checks that the API is reachable and accepts the credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, hostsPath, url.Values{"per_page": {"1"}})
	return err
}
