package openapi

import (
	"errors"
	"fmt"
	"sort"
)

// document holds the pieces collected by Generate before they are laid out
// as an OpenAPI object.
type document struct {
	cfg        generatorConfig
	rootRef    string
	bodies     map[string]map[string]any
	components map[string]any
}

func (d document) render() (map[string]any, error) {
	if d.rootRef == "" {
		return nil, errors.New("openapi: root schema reference cannot be empty")
	}
	info := map[string]any{"title": d.cfg.title, "version": d.cfg.apiVersion}
	if d.cfg.description != "" {
		info["description"] = d.cfg.description
	}
	method := d.cfg.method
	if method == "" {
		method = "post"
	}

	out := map[string]any{
		"openapi": d.cfg.version,
		"info":    info,
		"paths": map[string]any{
			d.cfg.path: map[string]any{method: d.operation(method)},
		},
	}
	if len(d.components) > 0 {
		out["components"] = map[string]any{"schemas": d.components}
	}
	if err := validateDocument(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d document) operation(method string) map[string]any {
	op := map[string]any{
		"operationId": d.cfg.operationID,
		"requestBody": map[string]any{
			"required": true,
			"content":  d.content(map[string]any{"$ref": d.rootRef}),
		},
		"responses": d.responses(),
	}
	if op["operationId"] == "" {
		op["operationId"] = method + ":" + d.cfg.path
	}
	if d.cfg.summary != "" {
		op["summary"] = d.cfg.summary
	}
	if len(d.cfg.tags) > 0 {
		op["tags"] = append([]string(nil), d.cfg.tags...)
	}
	return op
}

func (d document) responses() map[string]any {
	out := make(map[string]any, len(d.cfg.responses))
	for status, resp := range d.cfg.responses {
		entry := map[string]any{"description": resp.description}
		if schema, ok := d.bodies[status]; ok {
			entry["content"] = d.content(schema)
		}
		out[status] = entry
	}
	return out
}

func (d document) content(schema map[string]any) map[string]any {
	return map[string]any{d.cfg.contentType: map[string]any{"schema": schema}}
}

// validateDocument checks the fields every OpenAPI 3 consumer requires.
func validateDocument(doc map[string]any) error {
	if doc == nil {
		return errors.New("openapi: document cannot be nil")
	}
	if s, _ := doc["openapi"].(string); s == "" {
		return errors.New("openapi: document missing version string")
	}
	info, _ := doc["info"].(map[string]any)
	for _, key := range []string{"title", "version"} {
		if s, _ := info[key].(string); s == "" {
			return fmt.Errorf("openapi: info.%s must be set", key)
		}
	}

	paths, _ := doc["paths"].(map[string]any)
	if len(paths) == 0 {
		return errors.New("openapi: document must define at least one path")
	}
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item, _ := paths[path].(map[string]any)
		if len(item) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", path)
		}
		for method, raw := range item {
			op, _ := raw.(map[string]any)
			where := method + " " + path
			switch {
			case op == nil:
				return fmt.Errorf("openapi: operation %s is not an object", where)
			case op["operationId"] == nil || op["operationId"] == "":
				return fmt.Errorf("openapi: operation %s missing operationId", where)
			}
			if responses, _ := op["responses"].(map[string]any); len(responses) == 0 {
				return fmt.Errorf("openapi: operation %s missing responses", where)
			}
		}
	}
	return nil
}
