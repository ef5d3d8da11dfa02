package main

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/raster-tools-mcp/internal/detection"
	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
	"github.com/ironsheep/raster-tools-mcp/internal/recipe"
)

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d arguments, got %d (usage: %s %s)",
			c.Command.Name, n, c.NArg(), c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func applyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply a single operation to an image",
		ArgsUsage: "<input> <output>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "op", Usage: "Operation (grayscale, convolve, sobel, edges, morphology, fill_holes, threshold, expand, equalize, adjust, label)", Required: true},
			&cli.StringFlag{Name: "method", Usage: "grayscale: average, weighted or luminance"},
			&cli.StringFlag{Name: "kernel", Usage: "convolve: kernel preset"},
			&cli.StringFlag{Name: "operation", Usage: "morphology: dilate, erode, open, close or border"},
			&cli.StringFlag{Name: "element", Usage: "morphology/label: structuring element preset"},
			&cli.IntFlag{Name: "repeat", Usage: "convolve/morphology: number of passes"},
			&cli.IntFlag{Name: "level", Usage: "threshold: level 0-255 (Otsu when unset)"},
			&cli.IntFlag{Name: "low", Usage: "edges: lower hysteresis threshold"},
			&cli.IntFlag{Name: "high", Usage: "edges: upper hysteresis threshold"},
			&cli.IntFlag{Name: "min-area", Usage: "label: drop smaller regions"},
			&cli.StringFlag{Name: "render", Usage: "label: labels, mask or color"},
			&cli.IntFlag{Name: "brightness", Usage: "adjust: -255 to 255"},
			&cli.Float64Flag{Name: "contrast", Usage: "adjust: -255 to 255"},
			&cli.IntFlag{Name: "solarize", Usage: "adjust: invert samples above this level"},
			&cli.Float64Flag{Name: "saturation", Usage: "adjust: 1 keeps color, 0 yields gray"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2); err != nil {
				return err
			}
			rec := &recipe.Recipe{Name: c.String("op"), Steps: []recipe.Step{stepFromFlags(c)}}
			if err := rec.Validate(); err != nil {
				return err
			}
			res, err := runRecipe(e, rec, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			printSteps(res.Steps)
			if res.Labeling != nil {
				printRegions(res.Regions, 20)
			}
			return nil
		},
	}
}

// stepFromFlags maps the apply flags onto a recipe step. Unset flags stay
// at their zero value so the step defaults apply.
func stepFromFlags(c *cli.Context) recipe.Step {
	s := recipe.Step{
		Op:        c.String("op"),
		Method:    c.String("method"),
		Kernel:    c.String("kernel"),
		Operation: c.String("operation"),
		Element:   c.String("element"),
		Repeat:    c.Int("repeat"),
		Low:       c.Int("low"),
		High:      c.Int("high"),
		MinArea:   c.Int("min-area"),
		Render:    c.String("render"),
	}
	if c.IsSet("level") {
		level := c.Int("level")
		s.Level = &level
	}
	s.Brightness = c.Int("brightness")
	s.Contrast = c.Float64("contrast")
	if c.IsSet("solarize") {
		level := c.Int("solarize")
		s.Solarize = &level
	}
	if c.IsSet("saturation") {
		f := c.Float64("saturation")
		s.Saturation = &f
	}
	return s
}

func recipeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "recipe",
		Usage:     "Run a YAML recipe over an image",
		ArgsUsage: "<recipe.yaml> <input> <output>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "crops-dir", Usage: "Write one crop of the input per labeled region into this directory"},
			&cli.IntFlag{Name: "padding", Usage: "Pixels added around each crop"},
			&cli.IntFlag{Name: "max-regions", Usage: "Regions listed in the summary", Value: 20},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 3); err != nil {
				return err
			}
			rec, err := recipe.Load(c.Args().Get(0))
			if err != nil {
				return err
			}
			input := c.Args().Get(1)
			res, err := runRecipe(e, rec, input, c.Args().Get(2))
			if err != nil {
				return err
			}

			printSteps(res.Steps)
			if res.Labeling == nil {
				return nil
			}
			printRegions(res.Regions, c.Int("max-regions"))

			if dir := c.String("crops-dir"); dir != "" {
				src, err := e.cache.Load(input)
				if err != nil {
					return err
				}
				n, err := saveCrops(e, src, res.Regions, e.cfg.ResolveOutput(dir), c.Int("padding"))
				if err != nil {
					return err
				}
				printf(headerColor, "Saved %d crops to %s\n", n, dir)
			}
			return nil
		},
	}
}

func labelsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "labels",
		Usage:     "Label connected regions and print their statistics",
		ArgsUsage: "<input>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "element", Usage: "Adjacency: cross4 or neighbors8", Value: "cross4"},
			&cli.IntFlag{Name: "min-area", Usage: "Drop regions smaller than this"},
			&cli.StringFlag{Name: "overlay", Usage: "Write the input with region outlines to this file"},
			&cli.IntFlag{Name: "max-regions", Usage: "Regions listed", Value: 20},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			se, err := raster.StructuringElementByName(c.String("element"))
			if err != nil {
				return err
			}
			src, err := e.cache.Load(c.Args().Get(0))
			if err != nil {
				return err
			}
			gray := src
			if src.Channels == 3 {
				if gray, err = imaging.Grayscale(src, imaging.BT601); err != nil {
					return err
				}
			}

			lab, err := detection.Label(gray, se)
			if err != nil {
				return err
			}
			if n := c.Int("min-area"); n > 0 {
				lab = lab.FilterBySize(n)
			}
			regions := lab.Regions()

			if path := c.String("overlay"); path != "" {
				out, err := detection.DrawRegions(src, regions, "", true)
				if err != nil {
					return err
				}
				if err := e.cache.Save(e.cfg.ResolveOutput(path), out); err != nil {
					return err
				}
			}

			printf(headerColor, "%d regions\n", lab.Count)
			detection.LargestFirst(regions)
			printRegions(regions, c.Int("max-regions"))
			return nil
		},
	}
}

func histogramCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "histogram",
		Usage:     "Print the gray-value histogram of an image",
		ArgsUsage: "<input>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bins", Usage: "Number of bars in the chart (divides 256)", Value: 16},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			bins := c.Int("bins")
			if bins <= 0 || bins > 256 || 256%bins != 0 {
				return fmt.Errorf("--bins must divide 256, got %d", bins)
			}
			src, err := e.cache.Load(c.Args().Get(0))
			if err != nil {
				return err
			}
			if src.Channels == 3 {
				if src, err = imaging.Grayscale(src, imaging.BT601); err != nil {
					return err
				}
			}
			h, err := imaging.ComputeHistogram(src)
			if err != nil {
				return err
			}
			printHistogram(h, bins)
			return nil
		},
	}
}

func runRecipe(e *env, rec *recipe.Recipe, input, output string) (*recipe.Result, error) {
	src, err := e.cache.Load(input)
	if err != nil {
		return nil, err
	}
	res, err := recipe.NewRunner(e.logger).Run(rec, src)
	if err != nil {
		return nil, err
	}
	path := e.cfg.ResolveOutput(output)
	if err := e.cache.Save(path, res.Raster); err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{"path": path, "steps": len(res.Steps)}).Info("Recipe output saved")
	return res, nil
}

func saveCrops(e *env, src *raster.Raster, regions []detection.Region, dir string, padding int) (int, error) {
	crops, err := detection.CropRegions(src, regions, padding)
	if err != nil {
		return 0, err
	}
	for i, crop := range crops {
		path := filepath.Join(dir, fmt.Sprintf("region_%04d.png", regions[i].Label))
		if err := e.cache.Save(path, crop); err != nil {
			return i, err
		}
		e.logger.WithFields(logrus.Fields{"label": regions[i].Label, "path": path}).Debug("Crop saved")
	}
	return len(crops), nil
}
