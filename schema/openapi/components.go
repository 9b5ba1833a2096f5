package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

const schemaRefPrefix = "#/components/schemas/"

// componentRegistry publishes each struct type once under
// #/components/schemas. A type's name is claimed before its schema is built
// so self-referencing types terminate.
type componentRegistry struct {
	names   map[reflect.Type]string
	schemas map[string]map[string]any
	taken   map[string]bool
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		names:   map[reflect.Type]string{},
		schemas: map[string]map[string]any{},
		taken:   map[string]bool{},
	}
}

// reference returns the $ref for t, running build the first time t is seen.
func (r *componentRegistry) reference(hint string, t reflect.Type, build func() (map[string]any, error)) (string, error) {
	if name, ok := r.names[t]; ok {
		return schemaRefPrefix + name, nil
	}
	name := r.uniqueName(hint)
	r.names[t] = name
	schema, err := build()
	if err != nil {
		return "", err
	}
	r.schemas[name] = schema
	return schemaRefPrefix + name, nil
}

// uniqueName sanitizes hint and appends 1, 2, ... until it is unused.
func (r *componentRegistry) uniqueName(hint string) string {
	base := sanitizeComponentName(hint)
	if base == "" {
		base = "Schema"
	}
	name := base
	for n := 1; r.taken[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	r.taken[name] = true
	return name
}

func (r *componentRegistry) schemasByName() map[string]any {
	out := make(map[string]any, len(r.schemas))
	for name, schema := range r.schemas {
		out[name] = schema
	}
	return out
}

// sanitizeComponentName joins the ASCII letter and digit runs of name with
// single underscores and guards a leading digit.
func sanitizeComponentName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
