package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"airspace-allocator/allocator"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

var ErrInvalidRules = errors.New("invalid allocation rules")

// AirspaceSpec is the demand of one event prefix.
type AirspaceSpec struct {
	Slots     int    `json:"slots"`
	Preferred string `json:"preferred"`
}

// FrequencySpec is one pool entry; pool order is assignment order.
type FrequencySpec struct {
	Pair        string `json:"pair"`
	Chattermark string `json:"chattermark"`
}

// Rules is the static allocation configuration supplied by the caller.
type Rules struct {
	Capacity    int                     `json:"capacity"`
	Airspace    map[string]AirspaceSpec `json:"airspace"`
	Frequencies []FrequencySpec         `json:"frequencies"`
}

// DefaultRules is the squadron's standing table.
func DefaultRules() *Rules {
	return &Rules{
		Capacity: allocator.DefaultCapacity,
		Airspace: map[string]AirspaceSpec{
			"FTX": {Slots: 2, Preferred: "MOA 2"},
			"BFM": {Slots: 2, Preferred: "MOA 2"},
			"FRM": {Slots: 1, Preferred: "Area 4"},
			"DIV": {Slots: 2, Preferred: "Area 4"},
			"NFR": {Slots: 1, Preferred: "Area 4"},
			"SLD": {Slots: 2, Preferred: "Area 4"},
			"TAC": {Slots: 2, Preferred: "Area 4"},
			"DTF": {Slots: 2, Preferred: "MOA 2"},
		},
		Frequencies: []FrequencySpec{
			{Pair: "17/80", Chattermark: "246.8"},
			{Pair: "18/81", Chattermark: "333"},
			{Pair: "19/82", Chattermark: "357"},
			{Pair: "20/83", Chattermark: "246.9"},
			{Pair: "21/84", Chattermark: "299.2"},
		},
	}
}

// SetDefaults fills sections the source left out.
func (r *Rules) SetDefaults() {
	def := DefaultRules()
	if r.Capacity == 0 {
		r.Capacity = def.Capacity
	}
	if r.Airspace == nil {
		r.Airspace = def.Airspace
	}
	if r.Frequencies == nil {
		r.Frequencies = def.Frequencies
	}
}

// EngineConfig converts the rules into allocator input.
func (r *Rules) EngineConfig() (allocator.Config, error) {
	if r.Capacity < 1 {
		return allocator.Config{}, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidRules, r.Capacity)
	}
	cfg := allocator.Config{
		Capacity: r.Capacity,
		Rules:    make(map[string]allocator.AirspaceRule, len(r.Airspace)),
		Pool:     make([]allocator.FrequencyPair, 0, len(r.Frequencies)),
	}
	for prefix, spec := range r.Airspace {
		p := strings.ToUpper(strings.TrimSpace(prefix))
		if len(p) != allocator.PrefixLen {
			return allocator.Config{}, fmt.Errorf("%w: prefix %q must be %d characters", ErrInvalidRules, prefix, allocator.PrefixLen)
		}
		if _, dup := cfg.Rules[p]; dup {
			return allocator.Config{}, fmt.Errorf("%w: prefix %q listed twice", ErrInvalidRules, p)
		}
		area, err := allocator.ParseArea(spec.Preferred)
		if err != nil {
			return allocator.Config{}, fmt.Errorf("%w: prefix %s: %v", ErrInvalidRules, p, err)
		}
		cfg.Rules[p] = allocator.AirspaceRule{SlotsNeeded: spec.Slots, PreferredArea: area}
	}
	for _, f := range r.Frequencies {
		cfg.Pool = append(cfg.Pool, allocator.FrequencyPair{
			Pair:        strings.TrimSpace(f.Pair),
			Chattermark: strings.TrimSpace(f.Chattermark),
		})
	}
	if err := cfg.Validate(); err != nil {
		return allocator.Config{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return cfg, nil
}

// Validate checks mandatory fields.
func (r *Rules) Validate() error {
	_, err := r.EngineConfig()
	return err
}

func parserFor(format string) (koanf.Parser, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		return yaml.Parser(), nil
	case "json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported rules format: %s", format)
	}
}

func loadRules(p koanf.Provider, parser koanf.Parser) (*Rules, error) {
	k := koanf.New(".")
	if err := k.Load(p, parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. K_CAPACITY=5
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var r Rules
	if err := k.UnmarshalWithConf("", &r, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRulesFile reads rules from a .yaml/.yml/.json file.
func LoadRulesFile(path string) (*Rules, error) {
	parser, err := parserFor(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	r, err := loadRules(file.Provider(path), parser)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes rules held in memory.
func ParseRules(b []byte, format string) (*Rules, error) {
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}
	return loadRules(rawbytes.Provider(b), parser)
}

// LoadRules picks the configured source: ConfigMap, then file, then the
// built-in table.
func LoadRules(ctx context.Context, c *Config) (*Rules, error) {
	if ns, name, ok := c.ConfigMapRef(); ok {
		cli, err := NewKubeClient()
		if err != nil {
			return nil, fmt.Errorf("kubernetes client: %w", err)
		}
		return LoadRulesFromConfigMap(ctx, cli, ns, name, c.RulesConfigMapKey)
	}
	if c.RulesConfigMap != "" {
		return nil, fmt.Errorf("%w: bad configmap reference %q", ErrInvalidRules, c.RulesConfigMap)
	}
	if c.RulesFile != "" {
		return LoadRulesFile(c.RulesFile)
	}
	log.Info().Msg("no rules source configured; using built-in rules")
	r := DefaultRules()
	return r, r.Validate()
}
