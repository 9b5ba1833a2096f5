package openapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	listing "github.com/goliatone/go-listing"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Catalog", "2.0.0"),
		WithDescription("  catalog intake "),
		WithOperation("/catalog/items", "PUT", "upsertItem"),
		WithSummary("Upsert item"),
		WithTags("catalog", " ", "catalog", "items"),
		WithContentType("application/vnd.catalog+json"),
		WithResponse("200", "Updated"),
		WithResponseBody("422", "", listing.FieldErrors{}),
		WithoutResponse("201"),
		WithRootComponent("CatalogItem"),
	)

	cfg := custom.config
	if cfg.version != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", cfg.version)
	}
	if cfg.title != "Catalog" || cfg.apiVersion != "2.0.0" || cfg.description != "catalog intake" {
		t.Fatalf("unexpected info: %q %q %q", cfg.title, cfg.apiVersion, cfg.description)
	}
	if cfg.path != "/catalog/items" || cfg.method != "put" || cfg.operationID != "upsertItem" {
		t.Fatalf("unexpected operation: %s %s %s", cfg.method, cfg.path, cfg.operationID)
	}
	if cfg.summary != "Upsert item" {
		t.Fatalf("unexpected summary %q", cfg.summary)
	}
	if diff := cmp.Diff([]string{"catalog", "items"}, cfg.tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if cfg.contentType != "application/vnd.catalog+json" {
		t.Fatalf("unexpected content type %q", cfg.contentType)
	}
	if _, exists := cfg.responses["201"]; exists {
		t.Fatalf("expected 201 response to be removed")
	}
	if got := cfg.responses["200"].description; got != "Updated" {
		t.Fatalf("expected 200 description Updated, got %q", got)
	}
	unprocessable := cfg.responses["422"]
	if unprocessable.description != "Validation failed" || unprocessable.body == nil {
		t.Fatalf("expected default 422 description with a body, got %+v", unprocessable)
	}
	if cfg.root != "CatalogItem" {
		t.Fatalf("expected root component CatalogItem, got %q", cfg.root)
	}
}

func TestProductDocumentOperation(t *testing.T) {
	doc, err := ProductDocument(WithSummary("Create a product"))
	if err != nil {
		t.Fatalf("ProductDocument: %v", err)
	}

	if got := doc["openapi"]; got != "3.0.3" {
		t.Fatalf("expected openapi 3.0.3, got %v", got)
	}
	paths := doc["paths"].(map[string]any)
	operation := paths["/products"].(map[string]any)["post"].(map[string]any)

	if got := operation["operationId"]; got != "createProduct" {
		t.Fatalf("expected operationId createProduct, got %v", got)
	}
	if got := operation["summary"]; got != "Create a product" {
		t.Fatalf("expected summary, got %v", got)
	}

	if diff := cmp.Diff([]string{"products"}, operation["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	responses := operation["responses"].(map[string]any)
	wantResponses := map[string]any{
		"201": map[string]any{"description": "Created"},
		"422": map[string]any{
			"description": "Validation failed",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"additionalProperties": map[string]any{
							"type":  "array",
							"items": map[string]any{"$ref": "#/components/schemas/FieldError"},
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(wantResponses, responses); diff != "" {
		t.Fatalf("responses mismatch (-want +got):\n%s", diff)
	}

	body := operation["requestBody"].(map[string]any)
	schema := body["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if got := schema["$ref"]; got != "#/components/schemas/SubmissionPayload" {
		t.Fatalf("unexpected root ref %v", got)
	}
}

func TestProductDocumentComponents(t *testing.T) {
	doc, err := ProductDocument()
	if err != nil {
		t.Fatalf("ProductDocument: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)

	var names []string
	for name := range schemas {
		names = append(names, name)
	}
	wantNames := []string{"FieldError", "InventoryRow", "PricingRow", "Shipping", "SubmissionPayload", "SubmissionVariant", "SubmissionVariantItem"}
	if diff := cmp.Diff(wantNames, names, sortStrings); diff != "" {
		t.Fatalf("component names mismatch (-want +got):\n%s", diff)
	}

	payload := schemas["SubmissionPayload"].(map[string]any)
	wantRequired := []string{"category", "images", "inventories", "name", "shipping", "tags", "variantPricing", "variants"}
	if diff := cmp.Diff(wantRequired, payload["required"]); diff != "" {
		t.Fatalf("payload required mismatch (-want +got):\n%s", diff)
	}

	props := payload["properties"].(map[string]any)
	wantVariants := map[string]any{
		"type":  "array",
		"items": map[string]any{"$ref": "#/components/schemas/SubmissionVariant"},
	}
	if diff := cmp.Diff(wantVariants, props["variants"]); diff != "" {
		t.Fatalf("variants property mismatch (-want +got):\n%s", diff)
	}

	item := schemas["SubmissionVariantItem"].(map[string]any)
	if diff := cmp.Diff([]string{"images", "value"}, item["required"]); diff != "" {
		t.Fatalf("color must stay optional (-want +got):\n%s", diff)
	}
}

func TestProductDocumentConstraints(t *testing.T) {
	doc, err := ProductDocument()
	if err != nil {
		t.Fatalf("ProductDocument: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)

	pricing := schemas["PricingRow"].(map[string]any)
	if diff := cmp.Diff([]string{"quantity", "regularPrice"}, pricing["required"]); diff != "" {
		t.Fatalf("pricing required mismatch (-want +got):\n%s", diff)
	}
	props := pricing["properties"].(map[string]any)
	wantQuantity := map[string]any{"type": "integer", "minimum": float64(0), "exclusiveMinimum": true}
	if diff := cmp.Diff(wantQuantity, props["quantity"]); diff != "" {
		t.Fatalf("quantity mismatch (-want +got):\n%s", diff)
	}
	wantSale := map[string]any{"type": "number", "minimum": float64(0)}
	if diff := cmp.Diff(wantSale, props["salePrice"]); diff != "" {
		t.Fatalf("salePrice mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"type": "string"}, props["variant"]); diff != "" {
		t.Fatalf("variant key mismatch (-want +got):\n%s", diff)
	}

	shipping := schemas["Shipping"].(map[string]any)
	if diff := cmp.Diff([]string{"dimensionUnit", "weight", "weightUnit"}, shipping["required"]); diff != "" {
		t.Fatalf("shipping required mismatch (-want +got):\n%s", diff)
	}
}

type colorSwatch struct {
	Hex    string   `json:"hex" validate:"omitempty,hexcolor"`
	Labels []string `json:"labels" validate:"min=1,dive,required"`
	Code   string   `json:"code" validate:"min=2"`
	Hidden string   `json:"-"`
}

type treeNode struct {
	Label    string     `json:"label" validate:"required"`
	Children []treeNode `json:"children"`
}

type Shipping struct {
	Carrier string `json:"carrier"`
}

type twoShippings struct {
	Product listing.Shipping `json:"product"`
	Local   Shipping         `json:"local"`
}

func TestGenerateValidatorTags(t *testing.T) {
	doc, err := NewGenerator().Generate(&colorSwatch{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	swatch := schemas["colorSwatch"].(map[string]any)

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hex":    map[string]any{"type": "string", "pattern": `^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`},
			"labels": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			"code":   map[string]any{"type": "string", "minLength": 2},
		},
		"required": []string{"code", "labels"},
	}
	if diff := cmp.Diff(want, swatch); diff != "" {
		t.Fatalf("swatch schema mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateRecursiveType(t *testing.T) {
	doc, err := NewGenerator(WithRootComponent("Tree")).Generate(treeNode{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	if len(schemas) != 1 {
		t.Fatalf("expected a single component, got %d", len(schemas))
	}
	tree := schemas["Tree"].(map[string]any)
	children := tree["properties"].(map[string]any)["children"].(map[string]any)
	if got := children["items"].(map[string]any)["$ref"]; got != "#/components/schemas/Tree" {
		t.Fatalf("expected self reference, got %v", got)
	}
}

func TestGenerateUniqueComponentNames(t *testing.T) {
	doc, err := NewGenerator().Generate(twoShippings{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	for _, name := range []string{"twoShippings", "Shipping", "Shipping1"} {
		if _, ok := schemas[name]; !ok {
			t.Fatalf("expected component %q, got %v", name, schemas)
		}
	}
}

func TestGenerateRejectsNonStruct(t *testing.T) {
	if _, err := NewGenerator().Generate([]string{"a"}); err == nil {
		t.Fatalf("expected error for slice body")
	}
	if _, err := NewGenerator().Generate(nil); err == nil {
		t.Fatalf("expected error for nil body")
	}
}

func TestGenerateRejectsEmptyResponses(t *testing.T) {
	_, err := NewGenerator(WithoutResponse("201"), WithoutResponse("422")).Generate(treeNode{})
	if err == nil || !strings.Contains(err.Error(), "missing responses") {
		t.Fatalf("expected missing responses error, got %v", err)
	}
}

func TestProductDocumentEncodesAsJSON(t *testing.T) {
	doc, err := ProductDocument()
	if err != nil {
		t.Fatalf("ProductDocument: %v", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := validateDocument(decoded); err != nil {
		t.Fatalf("round-tripped document invalid: %v", err)
	}
}

func TestSanitizeComponentName(t *testing.T) {
	cases := map[string]string{
		"SubmissionPayload": "SubmissionPayload",
		"list[string]":      "list_string",
		"__x__":             "x",
		"9lives":            "_9lives",
		"---":               "",
	}
	for input, want := range cases {
		if got := sanitizeComponentName(input); got != want {
			t.Fatalf("sanitizeComponentName(%q) = %q, want %q", input, got, want)
		}
	}

	registry := newComponentRegistry()
	registry.uniqueName("Row")
	if got := registry.uniqueName("Row"); got != "Row1" {
		t.Fatalf("expected Row1, got %q", got)
	}
	if got := registry.uniqueName(""); got != "Schema" {
		t.Fatalf("expected Schema fallback, got %q", got)
	}
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })
