package settings

import (
	"os"
	"regexp"
	"strings"
)

// EmptySentinel forces an empty value even when a default would apply.
const EmptySentinel = "--empty--"

var envPlaceholder = regexp.MustCompile(`###ENV:([^#]*)###`)

// LookupFunc resolves an environment variable. It has the signature of os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// ResolveValue computes the effective value of row for the environment column
// envCol. A blank cell falls back to defaultCol when defaultCol is not negative.
// Placeholders are then interpolated and the empty sentinel applied.
func ResolveValue(row []string, envCol, defaultCol int, lookup LookupFunc) (string, error) {
	value := cell(row, envCol)
	if value == "" && defaultCol >= 0 {
		value = cell(row, defaultCol)
	}

	value, err := Interpolate(value, lookup)
	if err != nil {
		return "", err
	}

	if strings.ToLower(strings.TrimSpace(value)) == EmptySentinel {
		return "", nil
	}
	return value, nil
}

// Interpolate replaces every ###ENV:NAME### occurrence in s with the value of
// NAME. Substituted text is not scanned again. An unset variable fails with
// ErrMissingEnvironmentVariable.
func Interpolate(s string, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	matches := envPlaceholder.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		name := s[m[2]:m[3]]
		val, ok := lookup(name)
		if !ok {
			return "", &ConfigError{Kind: ErrMissingEnvironmentVariable, Detail: name}
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(val)
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
