package pipeline

import (
	"fmt"
	"io"

	"fyne.io/fyne/v2"

	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

type imageSaver struct {
	logger logger.Logger
}

// SaveToWriter encodes g as a binary PPM, replicating gray to RGB.
func (s *imageSaver) SaveToWriter(writer io.Writer, g *raster.Gray8) error {
	if g == nil {
		return fmt.Errorf("%w: no image data to save", raster.ErrEncoding)
	}
	if err := raster.EncodePPM(writer, g); err != nil {
		fields := logger.Fields{"size": fmt.Sprintf("%dx%d", g.Width, g.Height)}
		if uriWriter, ok := writer.(fyne.URIWriteCloser); ok {
			fields["path"] = uriWriter.URI().Path()
		}
		s.logger.Error("ImageSaver", err, fields)
		return err
	}
	return nil
}

// SaveToPath writes g to path atomically.
func (s *imageSaver) SaveToPath(path string, g *raster.Gray8) error {
	w, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if err := s.SaveToWriter(w, g); err != nil {
		w.Abort()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	s.logger.Debug("ImageSaver", "image saved", logger.Fields{
		"path": w.URI().Path(),
	})
	return nil
}
