package vision

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"frc-targeting/internal/monitoring"
	"frc-targeting/pkg/colorutil"
)

// Extractor turns frames into raw target contours by HSV thresholding.
// It satisfies targeting.ContourSource.
type Extractor struct {
	source FrameSource
	color  colorutil.HSVRange
}

// NewExtractor creates an extractor reading frames from source and keeping
// pixels inside color.
func NewExtractor(source FrameSource, color colorutil.HSVRange) *Extractor {
	return &Extractor{source: source, color: color}
}

// Contours fetches the next frame and returns its contours in extraction
// order. A frame that cannot be acquired is logged and yields no contours;
// only context cancellation is reported as an error.
func (e *Extractor) Contours(ctx context.Context) ([][]image.Point, error) {
	frame, err := e.source.Frame(ctx)
	defer frame.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		monitoring.Logf("vision: frame fetch failed: %v", err)
		return nil, nil
	}

	return FindTargetContours(frame, e.color), nil
}

// Mask thresholds a BGR frame to the color range and closes single-pixel
// gaps with one dilate and one erode. The caller must Close the result.
func Mask(frame gocv.Mat, color colorutil.HSVRange) gocv.Mat {
	mask := gocv.NewMat()
	if frame.Empty() {
		return mask
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(color.Min.H, color.Min.S, color.Min.V, 0),
		gocv.NewScalar(color.Max.H, color.Max.S, color.Max.V, 0),
		&mask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()
	gocv.Dilate(mask, &mask, kernel)
	gocv.Erode(mask, &mask, kernel)

	return mask
}

// FindTargetContours runs Mask on a frame and returns every contour of the
// result, including nested ones.
func FindTargetContours(frame gocv.Mat, color colorutil.HSVRange) [][]image.Point {
	mask := Mask(frame, color)
	defer mask.Close()
	if mask.Empty() {
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxTC89KCOS)
	defer contours.Close()

	var out [][]image.Point
	for _, c := range contours.ToPoints() {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// SampleColor averages the HSV values of a frame region. Used to
// calibrate the threshold range against a captured target.
func SampleColor(frame gocv.Mat, region image.Rectangle) (colorutil.HSV, error) {
	if frame.Empty() {
		return colorutil.HSV{}, fmt.Errorf("empty image")
	}

	region = region.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if region.Empty() {
		return colorutil.HSV{}, fmt.Errorf("region outside image")
	}

	roi := frame.Region(region)
	defer roi.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(roi, &hsv, gocv.ColorBGRToHSV)

	var total colorutil.HSV
	count := float64(hsv.Rows() * hsv.Cols())
	for y := 0; y < hsv.Rows(); y++ {
		for x := 0; x < hsv.Cols(); x++ {
			total.H += float64(hsv.GetUCharAt(y, x*3+0))
			total.S += float64(hsv.GetUCharAt(y, x*3+1))
			total.V += float64(hsv.GetUCharAt(y, x*3+2))
		}
	}

	return colorutil.HSV{H: total.H / count, S: total.S / count, V: total.V / count}, nil
}
