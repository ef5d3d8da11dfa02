package raster

import (
	"fmt"
	"sort"
	"strings"
)

// StructuringElement is a square binary grid with an odd side length.
//
// Entry (kx, ky), with kx and ky in [-Offset, Offset], is addressed relative
// to the centre. Morphology stamps or tests every 1 entry; labeling treats
// every 1 entry as a neighbour offset.
type StructuringElement struct {
	size   int
	offset int
	cells  []uint8
}

// NewStructuringElement validates a grid of 0/1 values and copies it.
//
// The grid must be non-empty, square, have an odd side and contain only 0
// and 1. Any violation returns ErrInvalidStructuringElement.
func NewStructuringElement(grid [][]int) (StructuringElement, error) {
	size, err := squareSide(grid)
	if err != nil {
		return StructuringElement{}, fmt.Errorf("%w: %v", ErrInvalidStructuringElement, err)
	}

	cells := make([]uint8, 0, size*size)
	for y, row := range grid {
		for x, v := range row {
			if v != 0 && v != 1 {
				return StructuringElement{}, fmt.Errorf("%w: value %d at (%d,%d) is not 0 or 1",
					ErrInvalidStructuringElement, v, x, y)
			}
			cells = append(cells, uint8(v))
		}
	}
	return StructuringElement{size: size, offset: size / 2, cells: cells}, nil
}

func mustStructuringElement(grid [][]int) StructuringElement {
	se, err := NewStructuringElement(grid)
	if err != nil {
		panic(err)
	}
	return se
}

// Cross4 is the 4-neighbourhood with an empty centre, the default adjacency
// for connected-component labeling.
func Cross4() StructuringElement {
	return mustStructuringElement([][]int{
		{0, 1, 0},
		{1, 0, 1},
		{0, 1, 0},
	})
}

// Neighbors8 is the 8-neighbourhood with an empty centre.
func Neighbors8() StructuringElement {
	return mustStructuringElement([][]int{
		{1, 1, 1},
		{1, 0, 1},
		{1, 1, 1},
	})
}

// Cross is the 3x3 plus shape including its centre, the default erosion
// element.
func Cross() StructuringElement {
	return mustStructuringElement([][]int{
		{0, 1, 0},
		{1, 1, 1},
		{0, 1, 0},
	})
}

// Square returns a k x k element of ones. k must be a positive odd number.
func Square(k int) (StructuringElement, error) {
	if k <= 0 || k%2 == 0 {
		return StructuringElement{}, fmt.Errorf("%w: side %d must be positive and odd",
			ErrInvalidStructuringElement, k)
	}
	grid := make([][]int, k)
	for y := range grid {
		grid[y] = make([]int, k)
		for x := range grid[y] {
			grid[y][x] = 1
		}
	}
	return NewStructuringElement(grid)
}

// Size returns the side length k.
func (se StructuringElement) Size() int { return se.size }

// Offset returns (k-1)/2, the distance from the centre to an edge.
func (se StructuringElement) Offset() int { return se.offset }

// Has reports whether the entry at (kx, ky) relative to the centre is 1.
func (se StructuringElement) Has(kx, ky int) bool {
	return se.cells[(ky+se.offset)*se.size+kx+se.offset] == 1
}

// Weight returns the number of 1 entries.
func (se StructuringElement) Weight() int {
	n := 0
	for _, v := range se.cells {
		n += int(v)
	}
	return n
}

// IsZero reports whether se is the zero value, i.e. was never constructed.
func (se StructuringElement) IsZero() bool { return se.size == 0 }

// Offsets lists the (kx, ky) positions of every 1 entry in row-major order.
func (se StructuringElement) Offsets() [][2]int {
	out := make([][2]int, 0, se.Weight())
	for ky := -se.offset; ky <= se.offset; ky++ {
		for kx := -se.offset; kx <= se.offset; kx++ {
			if se.Has(kx, ky) {
				out = append(out, [2]int{kx, ky})
			}
		}
	}
	return out
}

// Kernel is a square grid of signed weights with an odd side length and a
// non-zero divisor.
type Kernel struct {
	size    int
	offset  int
	weights []int
	divisor int
}

// NewKernel validates and copies a weight grid.
//
// The grid must be non-empty, square and have an odd side, and divisor must
// not be zero. Any violation returns ErrInvalidKernel.
func NewKernel(grid [][]int, divisor int) (Kernel, error) {
	size, err := squareSide(grid)
	if err != nil {
		return Kernel{}, fmt.Errorf("%w: %v", ErrInvalidKernel, err)
	}
	if divisor == 0 {
		return Kernel{}, fmt.Errorf("%w: divisor is zero", ErrInvalidKernel)
	}

	weights := make([]int, 0, size*size)
	for _, row := range grid {
		weights = append(weights, row...)
	}
	return Kernel{size: size, offset: size / 2, weights: weights, divisor: divisor}, nil
}

func mustKernel(grid [][]int, divisor int) Kernel {
	k, err := NewKernel(grid, divisor)
	if err != nil {
		panic(err)
	}
	return k
}

// Mean3 is the 3x3 box blur.
func Mean3() Kernel {
	return mustKernel([][]int{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}, 9)
}

// HighPass sharpens by boosting the centre against its 4-neighbours.
func HighPass() Kernel {
	return mustKernel([][]int{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}, 1)
}

// BorderSouth responds to edges whose bright side faces down.
func BorderSouth() Kernel {
	return mustKernel([][]int{
		{-1, -1, -1},
		{1, -2, 1},
		{1, 1, 1},
	}, 1)
}

// SobelX is the vertical-edge Sobel kernel.
func SobelX() Kernel {
	return mustKernel([][]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}, 1)
}

// SobelY is the horizontal-edge Sobel kernel.
func SobelY() Kernel {
	return mustKernel([][]int{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	}, 1)
}

// Size returns the side length.
func (k Kernel) Size() int { return k.size }

// Offset returns (size-1)/2.
func (k Kernel) Offset() int { return k.offset }

// Divisor returns the divisor applied to each weighted sum.
func (k Kernel) Divisor() int { return k.divisor }

// Weight returns the weight at (kx, ky) relative to the centre.
func (k Kernel) Weight(kx, ky int) int {
	return k.weights[(ky+k.offset)*k.size+kx+k.offset]
}

// IsZero reports whether k is the zero value.
func (k Kernel) IsZero() bool { return k.size == 0 }

var structuringElements = map[string]func() StructuringElement{
	"cross4":     Cross4,
	"neighbors8": Neighbors8,
	"cross":      Cross,
	"square3":    func() StructuringElement { se, _ := Square(3); return se },
	"square5":    func() StructuringElement { se, _ := Square(5); return se },
}

var kernels = map[string]func() Kernel{
	"mean":         Mean3,
	"high_pass":    HighPass,
	"border_south": BorderSouth,
	"sobel_x":      SobelX,
	"sobel_y":      SobelY,
}

// StructuringElementByName returns a preset element. Names are matched
// case-insensitively.
func StructuringElementByName(name string) (StructuringElement, error) {
	f, ok := structuringElements[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return StructuringElement{}, fmt.Errorf("%w: unknown preset %q (want one of %s)",
			ErrInvalidStructuringElement, name, strings.Join(StructuringElementNames(), ", "))
	}
	return f(), nil
}

// StructuringElementNames lists the preset names in sorted order.
func StructuringElementNames() []string {
	return sortedKeys(structuringElements)
}

// KernelByName returns a preset kernel. Names are matched case-insensitively.
func KernelByName(name string) (Kernel, error) {
	f, ok := kernels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Kernel{}, fmt.Errorf("%w: unknown preset %q (want one of %s)",
			ErrInvalidKernel, name, strings.Join(KernelNames(), ", "))
	}
	return f(), nil
}

// KernelNames lists the preset names in sorted order.
func KernelNames() []string {
	return sortedKeys(kernels)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// squareSide returns the side of a non-empty, square, odd-sided grid.
func squareSide(grid [][]int) (int, error) {
	size := len(grid)
	if size == 0 {
		return 0, fmt.Errorf("grid is empty")
	}
	for y, row := range grid {
		if len(row) != size {
			return 0, fmt.Errorf("row %d has %d entries, want %d", y, len(row), size)
		}
	}
	if size%2 == 0 {
		return 0, fmt.Errorf("side %d is even", size)
	}
	return size, nil
}
