package raster

// Mask is a boolean detection map with the spatial size of the image it
// was computed from.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Gray8 encodes true as 255 and false as 0.
func (m *Mask) Gray8() *Gray8 {
	out := NewGray8(m.Width, m.Height)
	for i, b := range m.Bits {
		if b {
			out.Pix[i] = 255
		}
	}
	return out
}
