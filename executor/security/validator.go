// Package security is the static pre-execution scan of submitted source.
// It is a syntactic denylist, a defense-in-depth layer in front of the
// sandbox, not an isolation mechanism: aliasing, string concatenation or
// reflection can evade it, and the container boundary is what actually
// holds. See the validator tests for the accepted false-positive cases.
package security

import (
	"fmt"
	"strings"

	"github.com/edplatform/judge_engine/executor/lang"
)

// blockedImports are module names whose import is rejected in dynamic
// languages, matched as "import X" / "from X" substrings.
var blockedImports = []string{
	"os",
	"sys",
	"subprocess",
	"shutil",
	"socket",
	"pickle",
	"ctypes",
	"importlib",
	"multiprocessing",
	"child_process",
	"fs",
	"net",
}

// blockedCalls are case-insensitive substrings rejected regardless of
// language: process spawns, dynamic evaluation and reflection-based
// process APIs.
var blockedCalls = []string{
	"subprocess.",
	"os.system",
	"os.popen",
	"eval(",
	"exec(",
	"__import__",
	"compile(",
	"globals(",
	"runtime.getruntime",
	"processbuilder",
	"require('child_process')",
	"require(\"child_process\")",
}

// dynamicLanguages get the import-statement scan in addition to the call
// scan. Compiled languages rely on the call patterns only; their include
// forms differ too much for the same substring match to mean anything.
var dynamicLanguages = map[string]struct{}{
	"python":     {},
	"javascript": {},
}

type Validator struct {
	maxSourceSize int64
}

func NewValidator(maxSourceSize int64) *Validator {
	return &Validator{maxSourceSize: maxSourceSize}
}

// Validate scans source before any execution. It returns false plus a
// structured reason when the submission must be rejected.
func (v *Validator) Validate(source, languageID string) (bool, string) {
	if v.maxSourceSize > 0 && int64(len(source)) > v.maxSourceSize {
		return false, fmt.Sprintf("source exceeds maximum size of %d bytes", v.maxSourceSize)
	}

	lower := strings.ToLower(source)
	id := lang.Canonical(languageID)

	if _, dynamic := dynamicLanguages[id]; dynamic {
		for _, name := range blockedImports {
			if strings.Contains(lower, "import "+name) || strings.Contains(lower, "from "+name) {
				return false, fmt.Sprintf("use of blocked module %q", name)
			}
		}
	}

	for _, pattern := range blockedCalls {
		if strings.Contains(lower, pattern) {
			return false, fmt.Sprintf("use of blocked pattern %q", pattern)
		}
	}

	return true, ""
}
