package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/spakin/netpbm"
)

const (
	ppmMagic  = "P6"
	ppmMaxVal = 255
)

// EncodePPM writes g as a binary P6 bitmap: the header "P6\n<w> <h>\n255\n"
// followed by row-major interleaved RGB bytes. Single-channel grids are
// replicated to RGB.
func EncodePPM(w io.Writer, g *Gray8) error {
	if g.Channels != 1 && g.Channels != 3 {
		return fmt.Errorf("%w: cannot encode %d channels", ErrEncoding, g.Channels)
	}
	if len(g.Pix) != g.Width*g.Height*g.Channels {
		return fmt.Errorf("%w: %d samples for %dx%dx%d grid", ErrEncoding, len(g.Pix), g.Width, g.Height, g.Channels)
	}
	rgb := g.RGB()

	img := image.NewRGBA(image.Rect(0, 0, rgb.Width, rgb.Height))
	for i, j := 0, 0; i < len(rgb.Pix); i, j = i+3, j+4 {
		img.Pix[j] = rgb.Pix[i]
		img.Pix[j+1] = rgb.Pix[i+1]
		img.Pix[j+2] = rgb.Pix[i+2]
		img.Pix[j+3] = 0xff
	}

	opts := &netpbm.EncodeOptions{Format: netpbm.PPM, MaxValue: ppmMaxVal}
	if err := netpbm.Encode(w, img, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return nil
}

// DecodePPM reads a binary P6 bitmap with maximum value 255. Header
// comments are skipped. The result always has 3 channels.
func DecodePPM(r io.Reader) (*Gray8, error) {
	br := bufio.NewReader(r)

	// netpbm accepts plain P3 as the same format; only raw input is valid here.
	magic, err := br.Peek(len(ppmMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: ppm magic: %v", ErrInput, err)
	}
	if string(magic) != ppmMagic {
		return nil, fmt.Errorf("%w: unsupported ppm magic %q", ErrInput, magic)
	}

	img, err := netpbm.Decode(br, &netpbm.DecodeOptions{Target: netpbm.PPM, Exact: true})
	if err != nil {
		return nil, fmt.Errorf("%w: ppm: %v", ErrInput, err)
	}
	if img.MaxValue() != ppmMaxVal {
		return nil, fmt.Errorf("%w: ppm max value %d, want %d", ErrInput, img.MaxValue(), ppmMaxVal)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: ppm dimensions %dx%d", ErrInput, width, height)
	}

	out := &Gray8{Width: width, Height: height, Channels: 3, Pix: make([]uint8, width*height*3)}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
			i += 3
		}
	}
	return out, nil
}
