// Package limits resolves effective resource limits for a run.
// Precedence, highest first: problem-level override, language default,
// global default.
package limits

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/edplatform/judge_engine/executor/lang"
)

const (
	DefaultTimeLimitSeconds      = 5
	DefaultMemoryLimit           = "128m"
	DefaultCompileTimeoutSeconds = 15
	DefaultMaxSourceSize         = 64 * 1024
	DefaultMaxOutputSize         = 1024 * 1024
)

// languageDefault carries per-language deviations from the globals.
// CompileTimeoutSeconds of zero means the language has no compile step.
type languageDefault struct {
	TimeLimitSeconds      int
	MemoryLimit           string
	CompileTimeoutSeconds int
}

var languageDefaults = map[string]languageDefault{
	"python":     {TimeLimitSeconds: 10, MemoryLimit: "256m"},
	"cpp":        {TimeLimitSeconds: 5, MemoryLimit: "128m", CompileTimeoutSeconds: 15},
	"c":          {TimeLimitSeconds: 5, MemoryLimit: "128m", CompileTimeoutSeconds: 15},
	"java":       {TimeLimitSeconds: 8, MemoryLimit: "512m", CompileTimeoutSeconds: 20},
	"javascript": {TimeLimitSeconds: 10, MemoryLimit: "256m"},
}

// Resolved is the immutable limit set for one submission.
type Resolved struct {
	TimeLimit      time.Duration
	MemoryBytes    int64
	CompileTimeout time.Duration // zero when the language has no compile step
	MaxSourceSize  int64
	MaxOutputSize  int64
}

// Config is the tunable part of the resolver, populated from the judge
// configuration subtree. Zero values fall back to built-in constants.
type Config struct {
	DefaultTimeLimitSeconds      int               `yaml:"defaultTimeLimitSeconds"`
	DefaultMemoryLimit           string            `yaml:"defaultMemoryLimit"`
	DefaultCompileTimeoutSeconds int               `yaml:"defaultCompileTimeoutSeconds"`
	MaxSourceSizeBytes           int64             `yaml:"maxSourceSizeBytes"`
	MaxOutputSizeBytes           int64             `yaml:"maxOutputSizeBytes"`
	TimeLimitOverrides           map[string]int    `yaml:"timeLimitOverrides"`
	MemoryLimitOverrides         map[string]string `yaml:"memoryLimitOverrides"`
}

type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	if cfg.DefaultTimeLimitSeconds <= 0 {
		cfg.DefaultTimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if cfg.DefaultMemoryLimit == "" {
		cfg.DefaultMemoryLimit = DefaultMemoryLimit
	}
	if cfg.DefaultCompileTimeoutSeconds <= 0 {
		cfg.DefaultCompileTimeoutSeconds = DefaultCompileTimeoutSeconds
	}
	if cfg.MaxSourceSizeBytes <= 0 {
		cfg.MaxSourceSizeBytes = DefaultMaxSourceSize
	}
	if cfg.MaxOutputSizeBytes <= 0 {
		cfg.MaxOutputSizeBytes = DefaultMaxOutputSize
	}
	return &Resolver{cfg: cfg}
}

// TimeLimit returns the run-step wall clock bound. problemOverride is in
// seconds; zero means no override.
func (r *Resolver) TimeLimit(languageID string, problemOverride int) time.Duration {
	if problemOverride > 0 {
		return time.Duration(problemOverride) * time.Second
	}
	id := lang.Canonical(languageID)
	if seconds, ok := r.cfg.TimeLimitOverrides[id]; ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, ok := languageDefaults[id]; ok && d.TimeLimitSeconds > 0 {
		return time.Duration(d.TimeLimitSeconds) * time.Second
	}
	return time.Duration(r.cfg.DefaultTimeLimitSeconds) * time.Second
}

// MemoryLimit converts the effective memory limit to bytes. The string
// form accepts k/m/g suffixes with 1024 multipliers; a bare number is
// bytes. A malformed string is an error, not a silent default.
func (r *Resolver) MemoryLimit(languageID, problemOverride string) (int64, error) {
	s := problemOverride
	if s == "" {
		id := lang.Canonical(languageID)
		if override, ok := r.cfg.MemoryLimitOverrides[id]; ok && override != "" {
			s = override
		} else if d, ok := languageDefaults[id]; ok && d.MemoryLimit != "" {
			s = d.MemoryLimit
		} else {
			s = r.cfg.DefaultMemoryLimit
		}
	}
	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	return bytes, nil
}

// CompileTimeout returns the compile-step bound and whether the language
// has a compile step at all.
func (r *Resolver) CompileTimeout(languageID string) (time.Duration, bool) {
	id := lang.Canonical(languageID)
	d, ok := languageDefaults[id]
	if ok && d.CompileTimeoutSeconds == 0 {
		return 0, false
	}
	if ok && d.CompileTimeoutSeconds > 0 {
		return time.Duration(d.CompileTimeoutSeconds) * time.Second, true
	}
	return time.Duration(r.cfg.DefaultCompileTimeoutSeconds) * time.Second, true
}

// Resolve computes the full limit set for one submission.
func (r *Resolver) Resolve(languageID string, timeOverride int, memoryOverride string) (Resolved, error) {
	memory, err := r.MemoryLimit(languageID, memoryOverride)
	if err != nil {
		return Resolved{}, err
	}
	compileTimeout, _ := r.CompileTimeout(languageID)
	return Resolved{
		TimeLimit:      r.TimeLimit(languageID, timeOverride),
		MemoryBytes:    memory,
		CompileTimeout: compileTimeout,
		MaxSourceSize:  r.cfg.MaxSourceSizeBytes,
		MaxOutputSize:  r.cfg.MaxOutputSizeBytes,
	}, nil
}

func (r *Resolver) MaxSourceSize() int64 { return r.cfg.MaxSourceSizeBytes }
func (r *Resolver) MaxOutputSize() int64 { return r.cfg.MaxOutputSizeBytes }
