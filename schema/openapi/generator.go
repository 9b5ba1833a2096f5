package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	listing "github.com/goliatone/go-listing"
)

// Generator renders an OpenAPI document whose request body is described by a
// Go type. Field names follow json tags; go-playground validator tags become
// required lists and numeric or length constraints.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator with the product defaults
// (POST /products, application/json).
func NewGenerator(opts ...GeneratorOption) *Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Generator{config: cfg}
}

// ProductDocument describes the submission payload. A 422 response carries
// the field errors keyed by draft path.
func ProductDocument(opts ...GeneratorOption) (map[string]any, error) {
	opts = append([]GeneratorOption{
		WithResponseBody("422", "Validation failed", listing.FieldErrors{}),
		WithTags("products"),
	}, opts...)
	return NewGenerator(opts...).Generate(listing.SubmissionPayload{})
}

// Generate builds the document for value's type. value must be a struct or
// a pointer to one.
func (g *Generator) Generate(value any) (map[string]any, error) {
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("openapi: request body must be a struct, got %v", t)
	}
	builder := &schemaBuilder{registry: newComponentRegistry()}

	name := g.config.root
	if name == "" {
		name = t.Name()
	}
	rootRef, err := builder.registry.reference(name, t, func() (map[string]any, error) {
		return builder.structSchema(t)
	})
	if err != nil {
		return nil, err
	}

	bodies := map[string]map[string]any{}
	for status, resp := range g.config.responses {
		if resp.body == nil {
			continue
		}
		schema, err := builder.schemaFor(resp.body)
		if err != nil {
			return nil, fmt.Errorf("openapi: response %s: %w", status, err)
		}
		bodies[status] = schema
	}

	return document{
		cfg:        g.config,
		rootRef:    rootRef,
		bodies:     bodies,
		components: builder.registry.schemasByName(),
	}.render()
}

type schemaBuilder struct {
	registry *componentRegistry
}

var timeType = reflect.TypeOf(time.Time{})

func (b *schemaBuilder) schemaFor(t reflect.Type) (map[string]any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}, nil
		}
		items, err := b.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("openapi: map key type %s unsupported", t.Key())
		}
		values, err := b.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": values}, nil
	case reflect.Interface:
		return map[string]any{}, nil
	case reflect.Struct:
		if t == timeType {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		ref, err := b.registry.reference(t.Name(), t, func() (map[string]any, error) {
			return b.structSchema(t)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"$ref": ref}, nil
	default:
		return nil, fmt.Errorf("openapi: type %s unsupported", t)
	}
}

func (b *schemaBuilder) structSchema(t reflect.Type) (map[string]any, error) {
	properties := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := jsonName(field)
		if name == "" {
			continue
		}
		schema, err := b.schemaFor(field.Type)
		if err != nil {
			return nil, fmt.Errorf("openapi: %s.%s: %w", t.Name(), field.Name, err)
		}
		isRequired := applyValidateTag(schema, field.Tag.Get("validate"))
		if isRequired && !omitEmpty {
			required = append(required, name)
		}
		properties[name] = schema
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema, nil
}

func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	omitEmpty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// applyValidateTag maps the top-level rules of a validator tag onto schema
// and reports whether the field is required. Rules after "dive" apply to
// elements and are ignored.
func applyValidateTag(schema map[string]any, tag string) bool {
	if tag == "" {
		return false
	}
	required := false
	for _, rule := range strings.Split(tag, ",") {
		if rule == "dive" {
			break
		}
		name, param, _ := strings.Cut(rule, "=")
		switch name {
		case "required":
			required = true
		case "gt":
			if n, err := strconv.ParseFloat(param, 64); err == nil {
				schema["minimum"] = n
				schema["exclusiveMinimum"] = true
				required = true
			}
		case "gte":
			if n, err := strconv.ParseFloat(param, 64); err == nil {
				schema["minimum"] = n
			}
		case "min":
			n, err := strconv.Atoi(param)
			if err != nil {
				continue
			}
			if schema["type"] == "array" {
				schema["minItems"] = n
			} else if schema["type"] == "string" {
				schema["minLength"] = n
			} else {
				schema["minimum"] = float64(n)
			}
			required = required || n > 0
		case "hexcolor":
			schema["pattern"] = `^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`
		}
	}
	return required
}
