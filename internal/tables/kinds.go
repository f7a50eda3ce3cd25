package tables

import (
	"fmt"

	"github.com/rflorenc/inventory-console/internal/models"
)

// Kind names a mapper.
type Kind string

const (
	KindDisks        Kind = "disks"
	KindProducts     Kind = "products"
	KindInterfaces   Kind = "interfaces"
	KindRepositories Kind = "repositories"
	KindGeneral      Kind = "general"
	KindWorkloads    Kind = "workloads"
)

// Kinds lists every mapper in display order.
func Kinds() []Kind {
	return []Kind{KindDisks, KindProducts, KindInterfaces, KindRepositories, KindGeneral, KindWorkloads}
}

// Options carries the presentation hints some mappers take.
type Options struct {
	Title         string
	FieldKeys     []string
	ColumnTitles  []string
	FallbackField string
}

// Map runs the mapper for kind over decoded JSON. The only error is an
// unknown kind; malformed data degrades to empty rows.
func Map(kind Kind, data interface{}, opts Options) (TableDescription, error) {
	switch kind {
	case KindDisks:
		return DiskMapper(records(data)), nil
	case KindProducts:
		return ProductsMapper(records(data)), nil
	case KindInterfaces:
		return InterfaceMapper(records(data)), nil
	case KindRepositories:
		return RepositoriesMapper(repositoryLists(data)), nil
	case KindGeneral:
		return GeneralMapper(list(data), opts.Title), nil
	case KindWorkloads:
		return WorkloadsDataMapper(WorkloadsInput{
			Data:          records(data),
			FieldKeys:     opts.FieldKeys,
			ColumnTitles:  opts.ColumnTitles,
			FallbackField: opts.FallbackField,
		}), nil
	}
	return TableDescription{}, fmt.Errorf("unknown table kind %q", kind)
}

func list(data interface{}) []interface{} {
	switch t := data.(type) {
	case []interface{}:
		return t
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []models.Resource:
		out := make([]interface{}, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out
	}
	return []interface{}{}
}

// records keeps only object entries; anything else in the list is treated
// as an empty record so row counts still match the input.
func records(data interface{}) []models.Resource {
	if rs, ok := data.([]models.Resource); ok {
		return rs
	}
	items := list(data)
	out := make([]models.Resource, len(items))
	for i, item := range items {
		switch m := item.(type) {
		case map[string]interface{}:
			out[i] = models.Resource(m)
		case models.Resource:
			out[i] = m
		default:
			out[i] = models.Resource{}
		}
	}
	return out
}

// repositoryLists accepts either a pre-split {enabled, disabled} object or
// a flat list that is split on each item's enabled flag.
func repositoryLists(data interface{}) RepositoryLists {
	switch t := data.(type) {
	case RepositoryLists:
		return t
	case map[string]interface{}:
		return RepositoryLists{
			Enabled:  records(t["enabled"]),
			Disabled: records(t["disabled"]),
		}
	}
	return SplitRepositories(records(data))
}
