// Package prompt renders analysis requests into the tagged prompt format the
// instruction-tuned model was trained on:
//
//	<s>[SYS] system [/SYS]
//	[INST] user [/INST]
//	[Example] example [/Example]
//
// The Example section is present only for kinds that define one.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lox/crimelens/internal/apperr"
)

// Kind selects the analytical framing of a prompt.
type Kind string

const (
	KindSpatial    Kind = "spatial"
	KindBeatwise   Kind = "beatwise"
	KindPrediction Kind = "prediction"
	KindDeployment Kind = "deployment"
	KindGeneral    Kind = "general"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindSpatial, KindBeatwise, KindPrediction, KindDeployment, KindGeneral}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown prompt kind %q", s)
}

// Context carries the structured fields interpolated into the user block.
// Empty fields are interpolated as-is.
type Context struct {
	District string
	Unit     string
	Beat     string
	// Data is the caller-supplied payload. When empty, the analysis text is
	// used in its place.
	Data string
}

const (
	tagOpen         = "<s>[SYS] "
	tagSysClose     = " [/SYS]\n[INST] "
	tagInstClose    = " [/INST]"
	tagExampleOpen  = "\n[Example] "
	tagExampleClose = " [/Example]"
)

// Render builds the prompt for kind. Only analysisText is validated; it
// must be non-blank.
func Render(kind Kind, analysisText string, c Context) (string, error) {
	if strings.TrimSpace(analysisText) == "" {
		return "", apperr.ClientInput("analysis_text", "Analysis text is required")
	}
	t, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}
	if c.Data == "" {
		c.Data = analysisText
	}

	var b strings.Builder
	b.WriteString(tagOpen)
	b.WriteString(t.system)
	b.WriteString(tagSysClose)
	b.WriteString(t.user(c))
	b.WriteString(tagInstClose)
	if t.example != "" {
		b.WriteString(tagExampleOpen)
		b.WriteString(t.example)
		b.WriteString(tagExampleClose)
	}
	return b.String(), nil
}

// System returns the fixed system block for kind.
func System(kind Kind) (string, bool) {
	t, ok := templates[kind]
	return t.system, ok
}
