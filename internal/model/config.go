package model

import (
	"context"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

// Enum helpers (optional).
const (
	ServiceModeManual = "manual"
	ServiceModeTimer  = "timer"

	// DefaultEncoding is the single-byte Cyrillic codepage the EZvit
	// application writes its logs in.
	DefaultEncoding = "windows-1251"

	PlannerLogName = "Planner.log"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

type Config struct {
	Version int     `json:"version" yaml:"version"` // fixed 0 for now
	Logs    Logs    `json:"logs" yaml:"logs"`
	Service Service `json:"service" yaml:"service"`
}

// Logs points at the directory the EZvit application writes its
// Planner.log and update_<date>.log files into.
type Logs struct {
	Dir      string  `json:"dir" yaml:"dir"`
	Encoding *string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// Service holds the outer-job settings: one-shot vs scheduled mode,
// state persistence and notification delivery.
type Service struct {
	Mode     string  `json:"mode" yaml:"mode"` // "manual" | "timer"
	Schedule *string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Verbose  *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	State    *string `json:"state,omitempty" yaml:"state,omitempty"` // sqlite path, empty = no persistence
	Notify   *Notify `json:"notify,omitempty" yaml:"notify,omitempty"`
}

// Notify configures the outcome webhooks.
type Notify struct {
	Enabled   *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	URLs      []string `json:"urls" yaml:"urls"`
	OnSuccess *bool    `json:"on_success,omitempty" yaml:"on_success,omitempty"`
}

// EncodingName returns the configured codepage or the default one.
func (l Logs) EncodingName() string {
	if l.Encoding == nil || *l.Encoding == "" {
		return DefaultEncoding
	}
	return *l.Encoding
}

// LoadConfig validates YAML from r against the CUE schema and decodes
// it into Config.
func LoadConfig(r io.Reader) (*Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return nil, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return nil, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DefaultConfig is written out on the first run when no config file
// exists yet. The logs dir stays empty on purpose: the CUE schema
// rejects it, forcing the operator to fill it in.
func DefaultConfig(_ context.Context) Config {
	enc := DefaultEncoding
	return Config{
		Version: 0,
		Logs: Logs{
			Dir:      "",
			Encoding: &enc,
		},
		Service: Service{
			Mode: ServiceModeManual,
		},
	}
}
