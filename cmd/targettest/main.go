// Command targettest runs target detection on a still image and prints
// the scored candidates.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"frc-targeting/internal/parameters"
	"frc-targeting/internal/targeting"
	"frc-targeting/internal/vision"
	"frc-targeting/pkg/colorutil"
)

func main() {
	imagePath := flag.String("image", "", "Path to camera image (JPEG, PNG, TIFF or BMP)")
	paramsPath := flag.String("params", "", "TOML parameters file")
	outPath := flag.String("out", "", "Write an annotated copy of the image")
	sample := flag.String("sample", "", "Sample the target color from region x,y,w,h")
	tolerance := flag.Float64("tolerance", 40, "Sample tolerance for S and V (H uses a quarter)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: targettest -image <path> [-params vision.toml] [-out annotated.png] [-sample x,y,w,h]")
		os.Exit(1)
	}

	params := parameters.Empty()
	if *paramsPath != "" {
		p, err := parameters.Load(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load parameters: %v\n", err)
			os.Exit(1)
		}
		params = p
	}

	img, err := vision.LoadImage(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded image: %dx%d pixels\n", bounds.Dx(), bounds.Dy())

	frame, err := vision.ImageToMat(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert image: %v\n", err)
		os.Exit(1)
	}
	defer frame.Close()

	cfg, err := targeting.ConfigFromParameters(targeting.DefaultConfig(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %v\n", err)
		os.Exit(1)
	}
	cfg = cfg.WithResolution(bounds.Dx(), bounds.Dy())

	if *sample != "" {
		var x, y, w, h int
		if _, err := fmt.Sscanf(*sample, "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
			fmt.Fprintf(os.Stderr, "Bad -sample %q: %v\n", *sample, err)
			os.Exit(1)
		}
		c, err := vision.SampleColor(frame, image.Rect(x, y, x+w, y+h))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sampling failed: %v\n", err)
			os.Exit(1)
		}
		cfg = cfg.WithColor(colorutil.RangeAround(c, *tolerance))
		fmt.Printf("Sampled HSV (%.0f, %.0f, %.0f)\n", c.H, c.S, c.V)
	}

	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  HSV: H(%.0f-%.0f) S(%.0f-%.0f) V(%.0f-%.0f)\n",
		cfg.Color.Min.H, cfg.Color.Max.H, cfg.Color.Min.S, cfg.Color.Max.S, cfg.Color.Min.V, cfg.Color.Max.V)
	fmt.Printf("  Rectangularity min: %.1f\n", cfg.RectangularityThreshold)
	fmt.Printf("  Aspect ratio min: %.1f\n", cfg.AspectRatioThreshold)
	fmt.Printf("  Pairing min: %.1f (vertical %.2f)\n", cfg.PairingScoreThreshold, cfg.VerticalScoreThreshold)

	contours := vision.FindTargetContours(frame, cfg.Color)
	vertical, horizontal := cfg.Partition(contours)
	candidates := cfg.Pair(vertical, horizontal)
	fmt.Printf("\n%d contours, %d vertical, %d horizontal\n", len(contours), len(vertical), len(horizontal))

	fmt.Printf("\n%-8s %10s %10s %8s %12s\n", "Side", "Distance", "Angle", "Hot", "Confidence")
	for _, cand := range candidates {
		t := cfg.BuildTarget(cand)
		fmt.Printf("%-8s %10.2f %10.2f %8v %12.1f\n", t.Side, t.Distance, t.Angle, t.IsHot, t.Confidence)
	}
	fmt.Printf("\nTotal: %d targets\n", len(candidates))

	if *outPath != "" {
		for _, f := range horizontal {
			gocv.Rectangle(&frame, f.BoundingBox.Rectangle(), colorutil.Yellow, 2)
		}
		for _, cand := range candidates {
			c := colorutil.Red
			if cand.Paired() {
				c = colorutil.Green
			}
			gocv.Rectangle(&frame, cand.Vertical.BoundingBox.Rectangle(), c, 2)
		}
		if !gocv.IMWrite(*outPath, frame) {
			fmt.Fprintf(os.Stderr, "Failed to write %s\n", *outPath)
			os.Exit(1)
		}
		fmt.Printf("Annotated image written to %s\n", *outPath)
	}
}
