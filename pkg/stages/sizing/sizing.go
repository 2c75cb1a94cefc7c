// Package sizing resolves output dimensions for rendered frames.
package sizing

import (
	"fmt"
	"math"

	"github.com/user/thumbextractor/pkg/pipeline"
)

// Validate rejects explicitly requested dimensions below pipeline.MinDimension.
// Zero and negative values mean "not given" and are accepted.
// It runs before any decode work.
func Validate(width, height int) error {
	if width > 0 && width < pipeline.MinDimension {
		return fmt.Errorf("%w: width %d is below the minimum of %d", pipeline.ErrInvalidRequest, width, pipeline.MinDimension)
	}
	if height > 0 && height < pipeline.MinDimension {
		return fmt.Errorf("%w: height %d is below the minimum of %d", pipeline.ErrInvalidRequest, height, pipeline.MinDimension)
	}
	return nil
}

// Resolve computes the output size for a frame of the given display size.
//
//   - neither dimension given: native size
//   - one dimension given: the other follows the source aspect ratio
//   - both given: exactly the requested size
func Resolve(width, height int, native pipeline.Dimension) (pipeline.Dimension, error) {
	if err := Validate(width, height); err != nil {
		return pipeline.Dimension{}, err
	}
	if native.Width <= 0 || native.Height <= 0 {
		return pipeline.Dimension{}, fmt.Errorf("%w: invalid frame size %dx%d", pipeline.ErrDecode, native.Width, native.Height)
	}

	switch {
	case width > 0 && height > 0:
		return pipeline.Dimension{Width: width, Height: height}, nil
	case width > 0:
		h := scale(width, native.Height, native.Width)
		return pipeline.Dimension{Width: width, Height: h}, nil
	case height > 0:
		w := scale(height, native.Width, native.Height)
		return pipeline.Dimension{Width: w, Height: height}, nil
	default:
		return native, nil
	}
}

// scale returns round(given * num / den), never less than one pixel.
func scale(given, num, den int) int {
	v := int(math.Round(float64(given) * float64(num) / float64(den)))
	if v < 1 {
		return 1
	}
	return v
}
