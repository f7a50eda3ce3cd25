package models

// Resource is a loosely typed upstream JSON object (host, group, profile
// entry). Field shapes vary between API versions, so readers must not
// assume types.
type Resource map[string]interface{}

// String returns a string field, or "" when absent or not a string.
func (r Resource) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns a boolean field, or false when absent or not a bool.
func (r Resource) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// Object returns a nested object field.
func (r Resource) Object(key string) Resource {
	switch v := r[key].(type) {
	case map[string]interface{}:
		return Resource(v)
	case Resource:
		return v
	}
	return nil
}

// List returns a list field, or nil.
func (r Resource) List(key string) []interface{} {
	if v, ok := r[key].([]interface{}); ok {
		return v
	}
	return nil
}
