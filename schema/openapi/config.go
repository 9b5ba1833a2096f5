package openapi

import (
	"reflect"
	"slices"
	"strings"
)

type response struct {
	description string
	body        reflect.Type
}

type generatorConfig struct {
	version string

	title       string
	apiVersion  string
	description string

	path        string
	method      string
	operationID string
	summary     string
	tags        []string
	contentType string
	root        string

	responses map[string]response
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		version:     "3.0.3",
		title:       "Product Listing",
		apiVersion:  "1.0.0",
		path:        "/products",
		method:      "post",
		operationID: "createProduct",
		contentType: "application/json",
		responses: map[string]response{
			"201": {description: "Created"},
			"422": {description: "Validation failed"},
		},
	}
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorConfig)

func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.version = version
		}
	}
}

// WithInfo sets info.title and info.version. Empty arguments keep the
// current values.
func WithInfo(title, version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.title = title
		}
		if version != "" {
			cfg.apiVersion = version
		}
	}
}

func WithDescription(description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.description = strings.TrimSpace(description)
	}
}

// WithOperation moves the request body to another path, method or
// operationId. Empty arguments keep the current values.
func WithOperation(path, method, operationID string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.path = path
		}
		if method != "" {
			cfg.method = strings.ToLower(method)
		}
		if operationID != "" {
			cfg.operationID = operationID
		}
	}
}

func WithSummary(summary string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.summary = strings.TrimSpace(summary)
	}
}

// WithTags appends operation tags, skipping blanks and repeats.
func WithTags(tags ...string) GeneratorOption {
	return func(cfg *generatorConfig) {
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag == "" || slices.Contains(cfg.tags, tag) {
				continue
			}
			cfg.tags = append(cfg.tags, tag)
		}
	}
}

func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithResponse adds or relabels a response. An existing body is kept.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.setResponse(status, description, nil)
	}
}

// WithResponseBody adds a response whose content is described by the type of
// body.
func WithResponseBody(status, description string, body any) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.setResponse(status, description, reflect.TypeOf(body))
	}
}

// WithoutResponse drops a response, including the defaults.
func WithoutResponse(status string) GeneratorOption {
	return func(cfg *generatorConfig) {
		delete(cfg.responses, status)
	}
}

// WithRootComponent names the request body component. An empty name keeps
// the Go type name.
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.root = name
	}
}

func (cfg *generatorConfig) setResponse(status, description string, body reflect.Type) {
	if status == "" {
		return
	}
	if cfg.responses == nil {
		cfg.responses = map[string]response{}
	}
	current := cfg.responses[status]
	if description != "" {
		current.description = description
	}
	if body != nil {
		current.body = body
	}
	cfg.responses[status] = current
}
