package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/anthonynsimon/bild/clone"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

// Luma weights applied to RGB input.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrInput, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type imageLoader struct {
	logger logger.Logger
}

func (l *imageLoader) LoadFromReader(reader fyne.URIReadCloser) (*ImageData, error) {
	originalURI := reader.URI()
	uriExtension := strings.ToLower(originalURI.Extension())

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", raster.ErrInput, err)
	}

	imageData, err := l.LoadFromBytes(data, uriExtension)
	if err != nil {
		return nil, err
	}
	imageData.OriginalURI = originalURI
	return imageData, nil
}

// LoadFromBytes decodes with the Go image decoders first and falls back
// to OpenCV for anything they reject.
func (l *imageLoader) LoadFromBytes(data []byte, format string) (*ImageData, error) {
	img, standardLibFormat, err := image.Decode(bytes.NewReader(data))
	decoder := "stdlib"
	if err != nil {
		l.logger.Debug("ImageLoader", "standard decoders failed, trying OpenCV", logger.Fields{
			"format": format,
			"error":  err.Error(),
		})
		img, err = decodeWithOpenCV(data)
		if err != nil {
			return nil, fmt.Errorf("%w: undecodable image: %v", raster.ErrInput, err)
		}
		decoder = "opencv"
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", raster.ErrInput)
	}

	gray, channels := toGray(img)
	actualFormat := l.determineActualFormat(format, standardLibFormat)
	imageData := &ImageData{
		Image:    img,
		Gray:     gray,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channels,
		Format:   actualFormat,
		Decoder:  decoder,
	}

	l.logger.Info("ImageLoader", "image loaded", logger.Fields{
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": channels,
		"format":   actualFormat,
		"decoder":  decoder,
	})

	return imageData, nil
}

func decodeWithOpenCV(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("OpenCV decoded an empty matrix")
	}
	return mat.ToImage()
}

// toGray converts img to a single-channel buffer in [0,1]. 8 and 16 bit
// gray images scale directly; everything else is composited over a white
// background and weighted by the luma coefficients.
func toGray(img image.Image) (*raster.Buffer, int) {
	bounds := img.Bounds()
	out := raster.New(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Set(x, y, float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)/255)
			}
		}
		return out, 1
	case *image.Gray16:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Set(x, y, float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)/65535)
			}
		}
		return out, 1
	}

	rgba := clone.AsRGBA(img)
	for y := 0; y < out.Height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < out.Width; x++ {
			p := row[4*x : 4*x+4]
			// Premultiplied: colour over white is p + (1 - alpha).
			bg := 1 - float64(p[3])/255
			r, g, b := float64(p[0])/255+bg, float64(p[1])/255+bg, float64(p[2])/255+bg
			out.Set(x, y, lumaR*r+lumaG*g+lumaB*b)
		}
	}
	return out, 3
}

func (l *imageLoader) determineActualFormat(uriExtension, stdLibFormat string) string {
	switch uriExtension {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		if stdLibFormat != "" {
			return stdLibFormat
		}
		return "unknown"
	}
}
