// Package lang holds the per-language execution metadata. All lookup
// tables that used to be scattered across compile/run code collapse into
// one arena of LanguageSpec records keyed by canonical identifier.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSupported is returned by Resolve for identifiers the registry
// does not know. An unknown language is always an error, never a
// fallback to some default runtime.
var ErrNotSupported = errors.New("language not supported")

// LanguageSpec describes one language runtime. CompileCommand is nil for
// interpreted languages. Commands are argv vectors relative to the
// sandbox working directory.
type LanguageSpec struct {
	ID             string
	Extension      string
	SourceFileName string
	CompileCommand []string
	RunCommand     []string
	Image          string
	Interpreted    bool
}

var defaultSpecs = []LanguageSpec{
	{
		ID:             "python",
		Extension:      ".py",
		SourceFileName: "solution.py",
		RunCommand:     []string{"python3", "solution.py"},
		Image:          "edplatform-judge-python",
		Interpreted:    true,
	},
	{
		ID:             "cpp",
		Extension:      ".cpp",
		SourceFileName: "solution.cpp",
		CompileCommand: []string{"g++", "-o", "solution", "solution.cpp", "-std=c++17", "-O2"},
		RunCommand:     []string{"./solution"},
		Image:          "edplatform-judge-cpp",
	},
	{
		ID:             "c",
		Extension:      ".c",
		SourceFileName: "solution.c",
		CompileCommand: []string{"gcc", "-o", "solution", "solution.c", "-std=c99", "-O2"},
		RunCommand:     []string{"./solution"},
		Image:          "edplatform-judge-cpp",
	},
	{
		ID:             "java",
		Extension:      ".java",
		SourceFileName: "Solution.java",
		CompileCommand: []string{"javac", "Solution.java"},
		RunCommand:     []string{"java", "Solution"},
		Image:          "edplatform-judge-java",
	},
	{
		ID:             "javascript",
		Extension:      ".js",
		SourceFileName: "solution.js",
		RunCommand:     []string{"node", "solution.js"},
		Image:          "edplatform-judge-javascript",
		Interpreted:    true,
	},
}

var defaultAliases = map[string]string{
	"py":   "python",
	"c++":  "cpp",
	"js":   "javascript",
	"node": "javascript",
}

// Canonical normalizes an identifier to its canonical form. It is a pure
// function over the alias table; it does not check registry membership.
func Canonical(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := defaultAliases[id]; ok {
		return canonical
	}
	return id
}

// Registry resolves language identifiers to specs. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	specs map[string]LanguageSpec
}

// NewRegistry builds a registry from the built-in specs plus extra
// entries. An extra spec with an existing ID replaces the built-in one,
// so deployments can retarget commands or images without code changes.
func NewRegistry(extra ...LanguageSpec) *Registry {
	specs := make(map[string]LanguageSpec, len(defaultSpecs)+len(extra))
	for _, s := range defaultSpecs {
		specs[s.ID] = s
	}
	for _, s := range extra {
		s.ID = strings.ToLower(s.ID)
		specs[s.ID] = s
	}
	return &Registry{specs: specs}
}

// Resolve returns the spec for id, applying alias normalization first.
func (r *Registry) Resolve(id string) (LanguageSpec, error) {
	spec, ok := r.specs[Canonical(id)]
	if !ok {
		return LanguageSpec{}, fmt.Errorf("%w: %q", ErrNotSupported, id)
	}
	return spec, nil
}

// Supported reports whether id resolves to a registered language.
func (r *Registry) Supported(id string) bool {
	_, ok := r.specs[Canonical(id)]
	return ok
}

// Images returns the distinct sandbox image names referenced by the
// registry, for startup provisioning.
func (r *Registry) Images() []string {
	seen := make(map[string]struct{}, len(r.specs))
	var images []string
	for _, s := range r.specs {
		if _, ok := seen[s.Image]; ok {
			continue
		}
		seen[s.Image] = struct{}{}
		images = append(images, s.Image)
	}
	return images
}

// All returns every registered spec.
func (r *Registry) All() []LanguageSpec {
	specs := make([]LanguageSpec, 0, len(r.specs))
	for _, s := range r.specs {
		specs = append(specs, s)
	}
	return specs
}
