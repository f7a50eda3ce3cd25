package tables

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/rflorenc/inventory-console/internal/models"
)

// Unwrap returns the inner value of a {"value": x} wrapper and any other
// value unchanged. Upstream responses use both shapes for the same field.
func Unwrap(v interface{}) interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		if inner, ok := m["value"]; ok {
			return inner
		}
	case models.Resource:
		if inner, ok := m["value"]; ok {
			return inner
		}
	}
	return v
}

// Truthy reports whether v would count as set in the console's JSON data:
// nil, false, zero numbers and empty strings are false, everything else
// is true.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// FormatValue flattens a field value for a text cell: lists are joined with
// ", " and missing values become the empty string.
func FormatValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = listElement(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	}
	return v
}

func listElement(v interface{}) string {
	if v == nil {
		return ""
	}
	return jsString(v)
}

// scalar is the value of a plain cell; absent fields render empty.
func scalar(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	return v
}

// field returns the first present key, unwrapped.
func field(r models.Resource, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return Unwrap(v)
		}
	}
	return nil
}

// jsString renders a value the way the console prints raw field values.
func jsString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "undefined"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = listElement(e)
		}
		return strings.Join(parts, ",")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// optionPairs renders a mount options object as key=value pairs. Keys are
// sorted so the output does not depend on map iteration order.
func optionPairs(v interface{}) string {
	var obj map[string]interface{}
	switch t := Unwrap(v).(type) {
	case map[string]interface{}:
		obj = t
	case models.Resource:
		obj = t
	default:
		return ""
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + jsString(Unwrap(obj[k]))
	}
	return strings.Join(pairs, ",  ")
}
