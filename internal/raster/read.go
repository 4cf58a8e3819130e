package raster

import (
	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// Read resamples the source rectangle into dstSize and returns the
// palette indices, one byte per destination pixel in row-major order.
//
// Resampling is area-average: each destination sample averages the source
// samples its footprint covers, the behavior GDAL's Average algorithm has
// on a palette band. The source rectangle is clamped to the raster extent;
// a rectangle entirely outside it fails with ErrEmptyRead.
func (d *Dataset) Read(srcRect geo.Rect, dstSize geo.Size) ([]uint8, error) {
	if !dstSize.Valid() || !srcRect.Size.Valid() {
		return nil, &ErrEmptyRead{X: srcRect.Pos.X, Y: srcRect.Pos.Y, W: srcRect.Size.W, H: srcRect.Size.H}
	}

	x0 := clamp(srcRect.Pos.X, 0, d.width)
	y0 := clamp(srcRect.Pos.Y, 0, d.height)
	x1 := clamp(srcRect.Pos.X+srcRect.Size.W, 0, d.width)
	y1 := clamp(srcRect.Pos.Y+srcRect.Size.H, 0, d.height)
	if x0 >= x1 || y0 >= y1 {
		return nil, &ErrEmptyRead{X: srcRect.Pos.X, Y: srcRect.Pos.Y, W: srcRect.Size.W, H: srcRect.Size.H}
	}

	srcW := x1 - x0
	srcH := y1 - y0
	out := make([]uint8, dstSize.W*dstSize.H)

	xRatio := float64(srcW) / float64(dstSize.W)
	yRatio := float64(srcH) / float64(dstSize.H)

	for dy := 0; dy < dstSize.H; dy++ {
		sy0 := y0 + int(float64(dy)*yRatio)
		sy1 := y0 + int(float64(dy+1)*yRatio)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		if sy1 > y1 {
			sy1 = y1
		}

		row := out[dy*dstSize.W:]
		for dx := 0; dx < dstSize.W; dx++ {
			sx0 := x0 + int(float64(dx)*xRatio)
			sx1 := x0 + int(float64(dx+1)*xRatio)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			if sx1 > x1 {
				sx1 = x1
			}

			sum := 0
			for sy := sy0; sy < sy1; sy++ {
				base := sy * d.width
				for sx := sx0; sx < sx1; sx++ {
					sum += int(d.indices[base+sx])
				}
			}
			n := (sy1 - sy0) * (sx1 - sx0)
			row[dx] = uint8((sum + n/2) / n)
		}
	}

	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
