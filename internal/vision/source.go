// Package vision acquires camera frames and extracts colored contours.
package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// FetchTimeout bounds every camera probe and snapshot request.
const FetchTimeout = time.Second

// ErrNoFrames is returned by a DirSource with nothing to replay.
var ErrNoFrames = errors.New("no frames available")

// FrameSource yields BGR frames. The caller owns the returned Mat and must
// Close it.
type FrameSource interface {
	Frame(ctx context.Context) (gocv.Mat, error)
}

// HTTPCamera fetches JPEG snapshots from a network camera.
type HTTPCamera struct {
	URL    string
	client *http.Client
}

// NewHTTPCamera returns a camera reading snapshots from url.
func NewHTTPCamera(url string) *HTTPCamera {
	return &HTTPCamera{
		URL:    url,
		client: &http.Client{Timeout: FetchTimeout},
	}
}

// Probe checks that the camera answers a snapshot request.
func (c *HTTPCamera) Probe(ctx context.Context) error {
	resp, err := c.get(ctx)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Frame downloads and decodes one snapshot.
func (c *HTTPCamera) Frame(ctx context.Context) (gocv.Mat, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("read snapshot: %w", err)
	}

	mat, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return mat, fmt.Errorf("decode snapshot: %w", err)
	}
	if mat.Empty() {
		return mat, fmt.Errorf("decode snapshot: empty image (%d bytes)", len(buf))
	}
	return mat, nil
}

func (c *HTTPCamera) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("camera request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", c.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("camera %s: status %s", c.URL, resp.Status)
	}
	return resp, nil
}

// imageExts are the capture formats DirSource replays.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".tif": true, ".tiff": true, ".bmp": true,
}

// DirSource replays image files from a directory in name order, wrapping
// around at the end. Useful for bench testing without a camera.
type DirSource struct {
	mu    sync.Mutex
	files []string
	next  int
}

// NewDirSource lists the image files in dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	return &DirSource{files: files}, nil
}

// Len returns the number of frames in the rotation.
func (d *DirSource) Len() int {
	return len(d.files)
}

// Probe reports ErrNoFrames when there is nothing to replay.
func (d *DirSource) Probe(ctx context.Context) error {
	if len(d.files) == 0 {
		return ErrNoFrames
	}
	return ctx.Err()
}

// Frame decodes the next file in the rotation.
func (d *DirSource) Frame(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}

	d.mu.Lock()
	if len(d.files) == 0 {
		d.mu.Unlock()
		return gocv.NewMat(), ErrNoFrames
	}
	path := d.files[d.next]
	d.next = (d.next + 1) % len(d.files)
	d.mu.Unlock()

	img, err := LoadImage(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return ImageToMat(img)
}

// LoadImage decodes a JPEG, PNG, TIFF or BMP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image %dx%d", w, h)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}
