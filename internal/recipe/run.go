package recipe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/raster-tools-mcp/internal/detection"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Result is the outcome of running a recipe.
type Result struct {
	// Raster is the output of the last step.
	Raster *raster.Raster

	// Labeling is set when the recipe contains a label step; it holds the
	// last one, after size filtering.
	Labeling *detection.Labeling

	// Regions are the statistics of Labeling, ordered by label id.
	Regions []detection.Region

	// Steps records what each step produced.
	Steps []StepReport
}

// StepReport describes one executed step.
type StepReport struct {
	Index    int           `json:"index"`
	Op       string        `json:"op"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Channels int           `json:"channels"`
	Duration time.Duration `json:"duration_ns"`
}

// Runner executes recipes and logs each step.
type Runner struct {
	logger logrus.FieldLogger
}

// NewRunner returns a runner that logs through logger. A nil logger
// discards output.
func NewRunner(logger logrus.FieldLogger) *Runner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Runner{logger: logger}
}

// Run applies every step of rec to src in order. src is not modified.
func (r *Runner) Run(rec *Recipe, src *raster.Raster) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	stages := make([]stage, len(rec.Steps))
	for i := range rec.Steps {
		st, err := rec.Steps[i].compile()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %v", ErrInvalidRecipe, i+1, rec.Steps[i].Op, err)
		}
		stages[i] = st
	}

	log := r.logger.WithField("recipe", rec.Name)
	log.WithFields(logrus.Fields{
		"steps":  len(stages),
		"width":  src.Width,
		"height": src.Height,
	}).Info("Running recipe")

	st := &state{current: src}
	res := &Result{Steps: make([]StepReport, 0, len(stages))}
	for i, run := range stages {
		op := strings.ToLower(rec.Steps[i].Op)
		start := time.Now()
		if err := run(st); err != nil {
			log.WithFields(logrus.Fields{"step": i + 1, "op": op}).WithError(err).Error("Recipe step failed")
			return nil, fmt.Errorf("step %d (%s): %w", i+1, op, err)
		}

		report := StepReport{
			Index:    i + 1,
			Op:       op,
			Width:    st.current.Width,
			Height:   st.current.Height,
			Channels: st.current.Channels,
			Duration: time.Since(start),
		}
		res.Steps = append(res.Steps, report)
		log.WithFields(logrus.Fields{
			"step":     report.Index,
			"op":       op,
			"channels": report.Channels,
			"duration": report.Duration,
		}).Debug("Recipe step done")
	}

	res.Raster = st.current
	if st.labeling != nil {
		res.Labeling = st.labeling.labeling
		res.Regions = st.labeling.labeling.Regions()
		log.WithField("regions", len(res.Regions)).Info("Recipe labeled regions")
	}
	return res, nil
}

type labelOutcome struct {
	labeling *detection.Labeling
	rendered *raster.Raster
}

func runLabel(src *raster.Raster, se raster.StructuringElement, minArea int, render string) (*labelOutcome, error) {
	lab, err := detection.Label(src, se)
	if err != nil {
		return nil, err
	}
	if minArea > 0 {
		lab = lab.FilterBySize(minArea)
	}

	out := &labelOutcome{labeling: lab}
	switch render {
	case RenderMask:
		out.rendered = lab.Mask()
	case RenderColor:
		out.rendered = lab.Colorize()
	default:
		out.rendered = lab.Raster()
	}
	return out, nil
}
