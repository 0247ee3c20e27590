package signature

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// The difference hash compares horizontally adjacent cells of a 9x8 grayscale
// downsample, yielding 8 bits per row over 8 rows.
const (
	hashCols = 9
	hashRows = 8
)

// DifferenceHash computes the 64-bit perceptual hash of an image. A bit is set
// when the cell to the right is brighter than its left neighbor, so the hash
// captures the gradient structure of the image rather than absolute levels.
func DifferenceHash(img image.Image) uint64 {
	grid := grayGrid(img, hashCols, hashRows)
	var hash uint64
	bit := 0
	for y := 0; y < hashRows; y++ {
		for x := 0; x < hashCols-1; x++ {
			if grid[y][x] < grid[y][x+1] {
				hash |= 1 << uint(bit)
			}
			bit++
		}
	}
	return hash
}

// Distance returns the Hamming distance between two perceptual hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// grayGrid box-downsamples the image to a cols x rows luminance grid. Each
// cell averages every source pixel it covers, so the grid is stable under
// moderate resizing of the source.
func grayGrid(img image.Image, cols, rows int) [][]float64 {
	grid := make([][]float64, rows)
	for y := range grid {
		grid[y] = make([]float64, cols)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return grid
	}

	for cy := 0; cy < rows; cy++ {
		y0 := bounds.Min.Y + cy*height/rows
		y1 := bounds.Min.Y + (cy+1)*height/rows
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cx := 0; cx < cols; cx++ {
			x0 := bounds.Min.X + cx*width/cols
			x1 := bounds.Min.X + (cx+1)*width/cols
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
				}
			}
			grid[cy][cx] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return grid
}
