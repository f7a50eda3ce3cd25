package systems

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rflorenc/inventory-console/internal/metrics"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/tables"
)

var (
	ErrUnknownKind   = errors.New("unknown table kind")
	ErrFieldRequired = errors.New("a profile field is required for this table")
)

// DetailRequest selects one host detail table.
type DetailRequest struct {
	Kind tables.Kind
	// Field is the system profile path read by general and workloads
	// tables, dot separated for nested objects.
	Field   string
	Options tables.Options
}

// DetailTable fetches the system profile of a host and maps the part the
// requested table shows.
func (s *Service) DetailTable(ctx context.Context, hostID string, req DetailRequest) (tables.TableDescription, error) {
	if !slices.Contains(tables.Kinds(), req.Kind) {
		return tables.TableDescription{}, fmt.Errorf("%w %q", ErrUnknownKind, req.Kind)
	}
	if (req.Kind == tables.KindGeneral || req.Kind == tables.KindWorkloads) && req.Field == "" {
		return tables.TableDescription{}, ErrFieldRequired
	}

	profile, err := s.API.FetchSystemProfile(ctx, hostID)
	if err != nil {
		return tables.TableDescription{}, err
	}

	td, err := tables.Map(req.Kind, profileData(profile, req), req.Options)
	if err != nil {
		return tables.TableDescription{}, err
	}
	metrics.TablesRenderedTotal.WithLabelValues(string(req.Kind)).Inc()
	return td, nil
}

func profileData(profile models.Resource, req DetailRequest) interface{} {
	switch req.Kind {
	case tables.KindDisks:
		return profile["disk_devices"]
	case tables.KindProducts:
		return services(profile)
	case tables.KindInterfaces:
		return profile["network_interfaces"]
	case tables.KindRepositories:
		return profile["yum_repos"]
	case tables.KindWorkloads:
		// A workload reported as a single object is a one row table.
		if m, ok := lookup(profile, req.Field).(map[string]interface{}); ok {
			return []interface{}{m}
		}
	}
	return lookup(profile, req.Field)
}

// services pairs installed services with whether systemd reports them
// enabled.
func services(profile models.Resource) []models.Resource {
	enabled := map[string]bool{}
	for _, e := range profile.List("enabled_services") {
		if name, ok := e.(string); ok {
			enabled[name] = true
		}
	}
	installed := profile.List("installed_services")
	out := make([]models.Resource, 0, len(installed))
	for _, item := range installed {
		name, ok := item.(string)
		if !ok {
			continue
		}
		status := "DOWN"
		if enabled[name] {
			status = "UP"
		}
		out = append(out, models.Resource{"name": name, "status": status})
	}
	return out
}

func lookup(r models.Resource, path string) interface{} {
	var cur interface{} = r
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case models.Resource:
			cur = m[key]
		case map[string]interface{}:
			cur = m[key]
		default:
			return nil
		}
	}
	return cur
}
