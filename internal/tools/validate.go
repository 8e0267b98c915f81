package tools

import "fmt"

// validateParams checks args against schema (a JSON-Schema subset: type,
// enum, minimum/maximum, minLength/maxLength, required, properties, items)
// and returns one message per violation, empty when valid.
func validateParams(args map[string]interface{}, schema map[string]interface{}) []string {
	if schema == nil {
		return nil
	}
	return validateValue(args, schema, "")
}

func validateValue(val interface{}, schema map[string]interface{}, path string) []string {
	label := path
	if label == "" {
		label = "parameter"
	}

	t, _ := schema["type"].(string)
	if t != "" && !matchesType(val, t) {
		return []string{fmt.Sprintf("%s should be %s", label, t)}
	}

	var errs []string

	// Built-in tools declare enum as []string; a decoded schema carries []interface{}.
	var enum []interface{}
	switch e := schema["enum"].(type) {
	case []interface{}:
		enum = e
	case []string:
		for _, s := range e {
			enum = append(enum, s)
		}
	}
	if enum != nil && !inEnum(val, enum) {
		errs = append(errs, fmt.Sprintf("%s must be one of %v", label, enum))
	}

	if t == "integer" || t == "number" {
		if n, ok := toFloat(val); ok {
			if min, ok := toFloat(schema["minimum"]); ok && n < min {
				errs = append(errs, fmt.Sprintf("%s must be >= %v", label, schema["minimum"]))
			}
			if max, ok := toFloat(schema["maximum"]); ok && n > max {
				errs = append(errs, fmt.Sprintf("%s must be <= %v", label, schema["maximum"]))
			}
		}
	}

	if t == "string" {
		if s, ok := val.(string); ok {
			if minLen, ok := toFloat(schema["minLength"]); ok && len(s) < int(minLen) {
				errs = append(errs, fmt.Sprintf("%s must be at least %v chars", label, schema["minLength"]))
			}
			if maxLen, ok := toFloat(schema["maxLength"]); ok && len(s) > int(maxLen) {
				errs = append(errs, fmt.Sprintf("%s must be at most %v chars", label, schema["maxLength"]))
			}
		}
	}

	if t == "object" {
		obj, _ := val.(map[string]interface{})
		props, _ := schema["properties"].(map[string]interface{})
		for _, key := range requiredKeys(schema["required"]) {
			if _, present := obj[key]; !present {
				full := key
				if path != "" {
					full = path + "." + key
				}
				errs = append(errs, fmt.Sprintf("missing required %s", full))
			}
		}
		for k, v := range obj {
			propSchema, ok := props[k].(map[string]interface{})
			if !ok {
				continue
			}
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			errs = append(errs, validateValue(v, propSchema, childPath)...)
		}
	}

	if t == "array" {
		items, _ := schema["items"].(map[string]interface{})
		if arr, ok := val.([]interface{}); ok && items != nil {
			for i, item := range arr {
				errs = append(errs, validateValue(item, items, fmt.Sprintf("%s[%d]", path, i))...)
			}
		}
	}

	return errs
}

func matchesType(val interface{}, t string) bool {
	switch t {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer":
		_, ok := toFloat(val)
		return ok
	case "number":
		_, ok := toFloat(val)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// requiredKeys normalizes schema["required"] into a []string. Every built-in
// tool declares it as []string (Go-native map literals), but a JSON-Schema
// decoded off the wire would carry it as []interface{} of strings; accept
// both so the missing-required-key check actually runs against real tools.
func requiredKeys(v interface{}) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []interface{}:
		keys := make([]string, 0, len(r))
		for _, e := range r {
			if s, ok := e.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	default:
		return nil
	}
}

func inEnum(val interface{}, enum []interface{}) bool {
	for _, e := range enum {
		if e == val {
			return true
		}
	}
	return false
}
