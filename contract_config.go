package listing

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// ContractConfig extends the registry from a YAML document:
//
//	engine: cel
//	steps:
//	  pricing:
//	    rules:
//	      - name: max_discount
//	        path: salePrice
//	        scope: rows
//	        when: "salePrice > 0.0"
//	        assert: "salePrice >= regularPrice * 0.5"
//	        message: cannot discount more than half
type ContractConfig struct {
	Engine string                `yaml:"engine"`
	Steps  map[string]StepConfig `yaml:"steps"`
}

// StepConfig holds the additions for one step. Replace drops the step's
// existing expression rules before appending; tag validation and built-in
// checks are kept unless SkipTags is set.
type StepConfig struct {
	Replace  bool   `yaml:"replace"`
	SkipTags bool   `yaml:"skipTags"`
	Rules    []Rule `yaml:"rules"`
}

// LoadContractConfig decodes a ContractConfig. Unknown keys are rejected.
func LoadContractConfig(r io.Reader) (ContractConfig, error) {
	var cfg ContractConfig
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return ContractConfig{}, nil
		}
		return ContractConfig{}, fmt.Errorf("listing: decode contract config: %w", err)
	}
	return cfg, nil
}

// Evaluator builds the evaluator named by cfg.Engine (expr when empty).
func (cfg ContractConfig) Evaluator(cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	return NewEvaluator(cfg.Engine, cache, registry)
}

// Extend applies cfg to r. Steps are processed by name and the
// registry is left untouched when any step fails.
func (r *Registry) Extend(cfg ContractConfig) error {
	names := make([]string, 0, len(cfg.Steps))
	for name := range cfg.Steps {
		names = append(names, name)
	}
	sort.Strings(names)

	next := r.Clone()
	for _, name := range names {
		step, ok := ParseStep(name)
		if !ok {
			return fmt.Errorf("%w: unknown step %q", ErrStepOutOfRange, name)
		}
		if step == LastStep {
			return fmt.Errorf("listing: step %s does not accept a contract", step)
		}
		stepCfg := cfg.Steps[name]
		contract := next.contracts[step]
		if contract == nil {
			contract = &Contract{Step: step}
		}
		if stepCfg.Replace {
			contract.Rules = nil
		}
		contract.SkipTags = stepCfg.SkipTags
		next.contracts[step] = contract
		if err := next.AddRules(step, stepCfg.Rules...); err != nil {
			return fmt.Errorf("listing: step %s: %w", name, err)
		}
	}
	r.contracts = next.contracts
	return nil
}
