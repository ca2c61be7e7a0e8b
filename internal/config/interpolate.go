package config

import (
	"os"
	"regexp"
	"strings"
)

// EnvLookup resolves the value for an environment variable. A lookup that
// returns an empty value is treated the same as an unset variable.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup reads from the process environment.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Matches ${VAR} or ${VAR|default}. The default segment may be empty.
var placeholderPattern = regexp.MustCompile(`\$\{([^}|]+)(?:\|([^}]*))?\}`)

// InterpolateEnv recursively substitutes ${VAR} and ${VAR|default}
// placeholders in strings with environment values. Mappings and sequences
// are walked recursively; other scalars pass through unchanged. The input is
// never mutated: maps and slices are rebuilt.
//
// Substitution rules, per placeholder:
//   - variable set and non-empty: its value
//   - otherwise, a default segment present: the default, where the literal
//     default "null" yields the empty string
//   - otherwise: *InterpolationError naming the variable
//
// lookup defaults to DefaultEnvLookup when nil. The function reads ambient
// environment state through lookup by design; tests inject their own lookup
// instead of mutating the process environment.
func InterpolateEnv(obj any, lookup EnvLookup) (any, error) {
	if lookup == nil {
		lookup = DefaultEnvLookup
	}
	return interpolateValue(obj, lookup)
}

func interpolateValue(obj any, lookup EnvLookup) (any, error) {
	switch v := obj.(type) {
	case string:
		return interpolateString(v, lookup)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			sub, err := interpolateValue(val, lookup)
			if err != nil {
				return nil, err
			}
			out[key] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			sub, err := interpolateValue(val, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return obj, nil
	}
}

func interpolateString(s string, lookup EnvLookup) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		name := s[m[2]:m[3]]

		if value, ok := lookup(name); ok && value != "" {
			b.WriteString(value)
		} else if m[4] >= 0 {
			// Default segment present. The literal default "null" maps to
			// the empty string so configs can express "optional, absent".
			def := s[m[4]:m[5]]
			if def != "null" {
				b.WriteString(def)
			}
		} else {
			return "", &InterpolationError{Variable: name}
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}
