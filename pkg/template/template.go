// Package template resolves {key} placeholders in flow text payloads.
package template

import (
	"fmt"
	"regexp"
	"strconv"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Resolve replaces every {key} occurrence in the template with the
// stringified value of variables[key]. Unknown keys are left as literal
// {key} text so callers can post-validate if they need strict resolution.
// Resolve is deterministic and has no side effects.
func Resolve(template string, variables map[string]any) string {
	if len(variables) == 0 {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]

		value, ok := variables[key]
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// Placeholders returns the distinct placeholder keys found in the template,
// in order of first appearance.
func Placeholders(template string) []string {
	var keys []string

	seen := make(map[string]bool)

	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		key := match[1]
		if !seen[key] {
			seen[key] = true

			keys = append(keys, key)
		}
	}

	return keys
}

// Stringify renders a variable value the way it appears in resolved text.
// Integral floats print without an exponent or trailing zeros, matching the
// way JSON-decoded numbers are usually meant.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
