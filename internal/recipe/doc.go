// Package recipe runs ordered pipelines of raster operations described in
// YAML.
//
// A recipe names each step by its operation and carries only the
// parameters that operation reads. Parse rejects unknown keys, unknown
// operations and out-of-range parameters before anything runs, so a recipe
// that parses will only fail at run time on input it cannot accept (for
// example morphology on a color raster).
//
// Steps see the output of the previous step. A label step additionally
// records its labeling and region statistics in the Result.
package recipe
