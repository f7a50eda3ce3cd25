package systems

import (
	"maps"

	"github.com/rflorenc/inventory-console/internal/inventory"
)

// GlobalFilter narrows every systems fetch, the way the console's global
// tag and workload selector does.
type GlobalFilter struct {
	Tags []string `yaml:"tags" json:"tags,omitempty"`
	// Workloads maps a system_profile filter path such as "[sap_system]"
	// to the value it must have.
	Workloads map[string]string `yaml:"workloads" json:"workloads,omitempty"`
}

// Apply merges the global filter into q. Table filters win when both set
// the same workload path.
func (g GlobalFilter) Apply(q inventory.SystemsQuery) inventory.SystemsQuery {
	if len(g.Tags) > 0 {
		tags := make([]string, 0, len(g.Tags)+len(q.Tags))
		tags = append(tags, g.Tags...)
		q.Tags = append(tags, q.Tags...)
	}
	if len(g.Workloads) > 0 {
		merged := maps.Clone(g.Workloads)
		maps.Copy(merged, q.Workloads)
		q.Workloads = merged
	}
	return q
}
