package mcp

import "fmt"

// arguments wraps the raw MCP argument map of one tool call.
type arguments map[string]interface{}

// toolArguments extracts the argument map, rejecting any other shape.
func toolArguments(raw interface{}) (arguments, error) {
	if raw == nil {
		return arguments{}, nil
	}
	argsMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return arguments(argsMap), nil
}

// str extracts a string argument.
// Returns an error if the argument is required but missing or invalid.
func (a arguments) str(key string, required bool) (string, error) {
	val, ok := a[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}

	if required && s == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}

	return s, nil
}

// clampedInt extracts an integer argument and clamps it to [lo, hi].
// MCP sends numbers as float64. Returns defaultVal if missing or invalid.
func (a arguments) clampedInt(key string, defaultVal, lo, hi int) int {
	val := defaultVal
	if f, ok := a[key].(float64); ok {
		val = int(f)
	}
	return max(lo, min(val, hi))
}
