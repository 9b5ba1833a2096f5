package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	listing "github.com/goliatone/go-listing"
	"github.com/goliatone/go-listing/internal/hydrate"
)

var draftDecoder = hydrate.NewDecoder[listing.ProductDraft](
	hydrate.WithDisallowUnknownFields[listing.ProductDraft](),
	hydrate.WithPostHook(func(_ hydrate.Context, draft *listing.ProductDraft) error {
		draft.Sync()
		return nil
	}),
)

// loadDraft reads the draft named by --file. YAML is chosen by extension;
// stdin is sniffed for a leading brace.
func (a *app) loadDraft() (listing.ProductDraft, error) {
	raw, err := a.readInput(a.draftPath)
	if err != nil {
		return listing.ProductDraft{}, err
	}

	payload := map[string]any{}
	if isYAML(a.draftPath, raw) {
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return listing.ProductDraft{}, fmt.Errorf("parse draft %s: %w", a.draftPath, err)
		}
	} else if err := json.Unmarshal(raw, &payload); err != nil {
		return listing.ProductDraft{}, fmt.Errorf("parse draft %s: %w", a.draftPath, err)
	}

	draft, err := draftDecoder.Decode(hydrate.Context{DraftID: a.draftPath}, payload)
	if err != nil {
		return listing.ProductDraft{}, err
	}
	a.logger.Debug("draft loaded",
		zap.String("file", a.draftPath),
		zap.Int("options", len(draft.Variants)),
		zap.Int("rows", len(draft.Inventories)),
	)
	return draft, nil
}

func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func isYAML(path string, raw []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] != '{'
}

// loadContracts returns the registry and evaluator for --contracts.
func (a *app) loadContracts() (*listing.Registry, listing.Evaluator, error) {
	registry := listing.DefaultRegistry()
	if a.contractsPath == "" {
		evaluator, err := listing.NewEvaluator("", nil, listing.DefaultFunctions())
		return registry, evaluator, err
	}

	raw, err := os.ReadFile(a.contractsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read contracts: %w", err)
	}
	cfg, err := listing.LoadContractConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	if err := registry.Extend(cfg); err != nil {
		return nil, nil, err
	}
	evaluator, err := cfg.Evaluator(listing.NewMemoryProgramCache(), listing.DefaultFunctions())
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("contracts loaded",
		zap.String("file", a.contractsPath),
		zap.String("engine", cfg.Engine),
		zap.Int("steps", len(cfg.Steps)),
	)
	return registry, evaluator, nil
}

func (a *app) writeJSON(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func parseStepFlag(name string) (listing.Step, error) {
	step, ok := listing.ParseStep(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return 0, fmt.Errorf("%w: %q", listing.ErrStepOutOfRange, name)
	}
	return step, nil
}
