// Package detection finds and measures connected regions in rasters.
//
// Label implements breadth-first connected-component labeling: every
// maximal set of equal-valued, mutually reachable non-zero pixels receives
// one id. Reachability is defined by a structuring element, so the same
// routine handles 4-connectivity (raster.Cross4), 8-connectivity
// (raster.Neighbors8) or any custom odd-sided neighbourhood.
//
// # Label Ids
//
// Ids are sequential ints starting at 1 in row-major discovery order; 0 is
// background. They are never reused or wrapped inside a Labeling. Only the
// 8-bit presentation wraps:
//
//   - Labeling.Raster maps id to ((id-1) mod 255) + 1
//   - Labeling.Colorize maps that display value through LabelLUT, a 256-entry
//     table with black at 0 and evenly spaced saturated hues at 1..255
//
// # Region Analysis
//
// Regions reports area, bounding box, centroid and fill ratio per id.
// FilterBySize drops small regions (speckle removal) and CropRegions cuts
// padded bounding boxes out of a source raster, the last step of the
// threshold, clean-up, analyze, crop workflow.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
package detection
