// Package dataset provides image dataset loaders that yield CPU tensors.
//
// Two loaders are available:
//   - PairListDataset: image/annotation pairs listed in a text file,
//     grouped into sequences by parent directory.
//   - FolderDataset: directory-per-class layout restricted to a chosen
//     subset of class folders.
//
// Decoded images become Float32 tensors of shape [3, H, W] with values
// scaled to [0, 1], ready for a model's forward pass after batching.
package dataset

import (
	"errors"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// ErrNoClasses reports that none of the requested class folders exist.
var ErrNoClasses = errors.New("no class folders found")

// Transform modifies a decoded image before tensor conversion, e.g.
// resizing every sample to a fixed resolution:
//
//	dataset.WithTransform(func(img image.Image) image.Image {
//	    return imaging.Resize(img, 32, 32, imaging.Lanczos)
//	})
type Transform func(image.Image) image.Image

// defaultExtensions lists the image file extensions loaders accept.
var defaultExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

func hasAllowedExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// loadImage decodes the file at path, applies the transform when set, and
// converts the result to a [3, H, W] Float32 tensor on the CPU device.
func loadImage(path string, transform Transform) (*tensor.RawTensor, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if transform != nil {
		img = transform(img)
	}
	return imageToTensor(img)
}

// imageToTensor converts an image to a CHW Float32 tensor scaled to [0, 1].
func imageToTensor(img image.Image) (*tensor.RawTensor, error) {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	height, width := bounds.Dy(), bounds.Dx()

	raw, err := tensor.NewRaw(tensor.Shape{3, height, width}, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}

	data := raw.AsFloat32()
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := nrgba.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			idx := y*width + x
			data[idx] = float32(px.R) / 255
			data[plane+idx] = float32(px.G) / 255
			data[2*plane+idx] = float32(px.B) / 255
		}
	}
	return raw, nil
}
