// Package replay runs recorded texture usage traces against trackers.
//
// A trace names a set of scopes and lists steps against them: usage changes,
// merges of one scope into another, queries, and expectations on the state a
// query would report. Traces are authored as YAML or as JSONC (JSON with
// comments and trailing commas) and picked by file extension.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/texstate"
	"github.com/gogpu/wgpu/core"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTrace is returned for traces that cannot be run.
var ErrInvalidTrace = errors.New("replay: invalid trace")

// Op is the kind of a trace step.
type Op string

// Step kinds.
const (
	OpChange Op = "change"
	OpMerge  Op = "merge"
	OpQuery  Op = "query"
	OpExpect Op = "expect"
)

// Trace is a parsed trace file.
type Trace struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one trace entry. Which fields apply depends on Op.
type Step struct {
	Op Op `yaml:"op" json:"op"`

	// Scope is the tracker the step acts on; for merges it is the target.
	Scope string `yaml:"scope" json:"scope"`

	// From is the scope merged into Scope.
	From   string          `yaml:"from,omitempty" json:"from,omitempty"`
	Stitch texstate.Stitch `yaml:"stitch,omitempty" json:"stitch,omitempty"`

	// Texture is the texture index; Epoch defaults to 1.
	Texture uint32           `yaml:"texture" json:"texture"`
	Epoch   uint32           `yaml:"epoch,omitempty" json:"epoch,omitempty"`
	Aspects texstate.Aspects `yaml:"aspects,omitempty" json:"aspects,omitempty"`
	Levels  *Span            `yaml:"levels,omitempty" json:"levels,omitempty"`
	Layers  *Span            `yaml:"layers,omitempty" json:"layers,omitempty"`

	// Usage is the target of a change or the expected result of an expect.
	Usage texstate.Uses `yaml:"usage,omitempty" json:"usage,omitempty"`

	// Implicit makes a change or merge combine usages instead of recording
	// transitions.
	Implicit bool `yaml:"implicit,omitempty" json:"implicit,omitempty"`

	// Indeterminate makes an expect step require that the selected
	// subresources have no single usage.
	Indeterminate bool `yaml:"indeterminate,omitempty" json:"indeterminate,omitempty"`
}

// Span is a half-open [Start, End) range of mip levels or array layers.
type Span struct {
	Start uint32 `yaml:"start" json:"start"`
	End   uint32 `yaml:"end" json:"end"`
}

// TextureID returns the id the step refers to.
func (s *Step) TextureID() core.TextureID {
	epoch := s.Epoch
	if epoch == 0 {
		epoch = 1
	}
	return texstate.NewTextureID(s.Texture, epoch)
}

// Selector returns the selected subresources. Missing aspects default to
// color and missing spans to the first level or layer.
func (s *Step) Selector() texstate.Selector {
	sel := texstate.Selector{
		Aspects: s.Aspects,
		Levels:  texstate.Range{Start: 0, End: 1},
		Layers:  texstate.Range{Start: 0, End: 1},
	}
	if sel.Aspects == 0 {
		sel.Aspects = texstate.AspectColor
	}
	if s.Levels != nil {
		sel.Levels = texstate.Range{Start: s.Levels.Start, End: s.Levels.End}
	}
	if s.Layers != nil {
		sel.Layers = texstate.Range{Start: s.Layers.Start, End: s.Layers.End}
	}
	return sel
}

// Validate checks a step in isolation.
func (s *Step) Validate() error {
	switch s.Op {
	case OpChange, OpQuery, OpExpect:
		sel := s.Selector()
		if sel.Levels.Start > sel.Levels.End || sel.Layers.Start > sel.Layers.End {
			return fmt.Errorf("%w: %s: inverted selector %s", ErrInvalidTrace, s.Op, sel)
		}
		if sel.Levels.End > texstate.MaxMipLevels {
			return fmt.Errorf("%w: %s: mip level %d exceeds the limit of %d",
				ErrInvalidTrace, s.Op, sel.Levels.End, texstate.MaxMipLevels)
		}
	case OpMerge:
		if s.From == "" {
			return fmt.Errorf("%w: merge into %q without a source scope", ErrInvalidTrace, s.Scope)
		}
	case "":
		return fmt.Errorf("%w: step without op", ErrInvalidTrace)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidTrace, s.Op)
	}
	if s.Scope == "" {
		return fmt.Errorf("%w: %s without a scope", ErrInvalidTrace, s.Op)
	}
	if s.Op == OpChange && s.Usage.IsEmpty() {
		return fmt.Errorf("%w: change without a usage", ErrInvalidTrace)
	}
	return nil
}

// Validate checks every step.
func (t *Trace) Validate() error {
	for i := range t.Steps {
		if err := t.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// ParseYAML parses a YAML trace.
func ParseYAML(data []byte) (*Trace, error) {
	var trace Trace
	if err := yaml.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidTrace, err)
	}
	if err := trace.Validate(); err != nil {
		return nil, err
	}
	return &trace, nil
}

// ParseJSONC parses a JSON trace that may contain comments and trailing
// commas.
func ParseJSONC(data []byte) (*Trace, error) {
	var trace Trace
	if err := json.Unmarshal(jsonc.ToJSON(data), &trace); err != nil {
		return nil, fmt.Errorf("%w: parsing json: %w", ErrInvalidTrace, err)
	}
	if err := trace.Validate(); err != nil {
		return nil, err
	}
	return &trace, nil
}

// ReadFile reads a trace from disk. Files ending in .json or .jsonc are
// parsed as JSONC, everything else as YAML. A trace without a name is named
// after the file.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	parse := ParseYAML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		parse = ParseJSONC
	}

	trace, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if trace.Name == "" {
		base := filepath.Base(path)
		trace.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return trace, nil
}
