package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// ErrInvalidRecipe is returned for recipes that fail to parse or validate.
var ErrInvalidRecipe = errors.New("recipe: invalid recipe")

// Step operation names.
const (
	OpGrayscale  = "grayscale"
	OpConvolve   = "convolve"
	OpSobel      = "sobel"
	OpEdges      = "edges"
	OpMorphology = "morphology"
	OpFillHoles  = "fill_holes"
	OpThreshold  = "threshold"
	OpExpand     = "expand"
	OpEqualize   = "equalize"
	OpAdjust     = "adjust"
	OpLabel      = "label"
)

// Label render modes.
const (
	RenderLabels = "labels"
	RenderMask   = "mask"
	RenderColor  = "color"
)

// Recipe is an ordered list of raster operations loaded from YAML.
//
//	name: roi-extract
//	steps:
//	  - op: grayscale
//	  - op: threshold          # no level: Otsu
//	  - op: morphology
//	    operation: dilate
//	    element: square3
//	    repeat: 2
//	  - op: fill_holes
//	  - op: label
//	    element: cross4
//	    min_area: 50
type Recipe struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one operation plus the parameters it reads. Unused parameters
// must be left empty.
type Step struct {
	Op string `yaml:"op"`

	// grayscale
	Method string `yaml:"method,omitempty"`

	// convolve
	Kernel string `yaml:"kernel,omitempty"`

	// morphology; element is shared with label, repeat with convolve
	Operation string `yaml:"operation,omitempty"`
	Element   string `yaml:"element,omitempty"`
	Repeat    int    `yaml:"repeat,omitempty"`

	// threshold; nil selects Otsu
	Level *int `yaml:"level,omitempty"`

	// edges
	Low  int `yaml:"low,omitempty"`
	High int `yaml:"high,omitempty"`

	// label
	MinArea int    `yaml:"min_area,omitempty"`
	Render  string `yaml:"render,omitempty"`

	// adjust
	imaging.Adjustments `yaml:",inline"`
}

// Parse decodes and validates a YAML recipe. Unknown keys are rejected.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidRecipe)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return Parse(data)
}

// Marshal renders r as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Validate checks every step without running it.
func (r *Recipe) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}
	for i := range r.Steps {
		if _, err := r.Steps[i].compile(); err != nil {
			return fmt.Errorf("%w: step %d (%s): %v", ErrInvalidRecipe, i+1, r.Steps[i].Op, err)
		}
	}
	return nil
}

// stage is a validated step ready to run.
type stage func(st *state) error

// state is threaded through the stages of one run.
type state struct {
	current  *raster.Raster
	labeling *labelOutcome
}

func (s Step) compile() (stage, error) {
	switch strings.ToLower(s.Op) {
	case OpGrayscale:
		method, err := imaging.ParseGrayscaleMethod(s.Method)
		if err != nil {
			return nil, err
		}
		return func(st *state) error {
			if st.current.Channels == 1 {
				return nil
			}
			out, err := imaging.Grayscale(st.current, method)
			st.current = out
			return err
		}, nil

	case OpConvolve:
		kernel, err := raster.KernelByName(s.Kernel)
		if err != nil {
			return nil, err
		}
		return repeated(s.Repeat, func(st *state) error {
			out, err := imaging.Convolve(st.current, kernel)
			st.current = out
			return err
		}), nil

	case OpSobel:
		return func(st *state) error {
			res, err := imaging.Sobel(st.current)
			if err != nil {
				return err
			}
			st.current = res.Magnitude
			return nil
		}, nil

	case OpEdges:
		low, high := s.Low, s.High
		if low == 0 && high == 0 {
			low, high = 50, 150
		}
		if low < 0 || high > 255 || low > high {
			return nil, fmt.Errorf("thresholds must satisfy 0 <= low <= high <= 255")
		}
		return func(st *state) error {
			out, err := imaging.EdgeDetect(st.current, low, high)
			st.current = out
			return err
		}, nil

	case OpMorphology:
		op, err := imaging.ParseMorphologyOp(s.Operation)
		if err != nil {
			return nil, err
		}
		se, err := elementOrDefault(s.Element, "square3")
		if err != nil {
			return nil, err
		}
		return repeated(s.Repeat, func(st *state) error {
			out, err := imaging.ApplyMorphology(op, st.current, se)
			st.current = out
			return err
		}), nil

	case OpFillHoles:
		return func(st *state) error {
			out, err := imaging.FillHoles(st.current)
			st.current = out
			return err
		}, nil

	case OpThreshold:
		if s.Level != nil && (*s.Level < 0 || *s.Level > 255) {
			return nil, fmt.Errorf("level %d outside 0-255", *s.Level)
		}
		level := s.Level
		return func(st *state) error {
			lvl := 0
			if level != nil {
				lvl = *level
			} else {
				h, err := imaging.ComputeHistogram(st.current)
				if err != nil {
					return err
				}
				lvl = imaging.OtsuThreshold(h)
			}
			out, err := imaging.Threshold(st.current, lvl)
			st.current = out
			return err
		}, nil

	case OpExpand:
		return func(st *state) error {
			h, err := imaging.ComputeHistogram(st.current)
			if err != nil {
				return err
			}
			out, err := imaging.Expand(st.current, h)
			st.current = out
			return err
		}, nil

	case OpEqualize:
		return func(st *state) error {
			out, err := imaging.Equalize(st.current)
			st.current = out
			return err
		}, nil

	case OpAdjust:
		adj := s.Adjustments
		return func(st *state) error {
			out, err := imaging.Adjust(st.current, adj)
			st.current = out
			return err
		}, nil

	case OpLabel:
		se, err := elementOrDefault(s.Element, "cross4")
		if err != nil {
			return nil, err
		}
		render := strings.ToLower(s.Render)
		switch render {
		case "":
			render = RenderLabels
		case RenderLabels, RenderMask, RenderColor:
		default:
			return nil, fmt.Errorf("unknown render mode %q", s.Render)
		}
		if s.MinArea < 0 {
			return nil, fmt.Errorf("negative min_area %d", s.MinArea)
		}
		minArea := s.MinArea
		return func(st *state) error {
			out, err := runLabel(st.current, se, minArea, render)
			if err != nil {
				return err
			}
			st.current = out.rendered
			st.labeling = out
			return nil
		}, nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

func repeated(n int, f stage) stage {
	if n <= 1 {
		return f
	}
	return func(st *state) error {
		for i := 0; i < n; i++ {
			if err := f(st); err != nil {
				return err
			}
		}
		return nil
	}
}

func elementOrDefault(name, fallback string) (raster.StructuringElement, error) {
	if name == "" {
		name = fallback
	}
	return raster.StructuringElementByName(name)
}
