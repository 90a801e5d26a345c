package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// MaxPool2D downsamples by taking the maximum over square windows.
// It has no trainable parameters.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a max pooling layer. A stride of 0 defaults to the
// kernel size, giving non-overlapping windows.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride == 0 {
		stride = kernelSize
	}
	if stride < 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}

	return &MaxPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		backend:    backend,
	}
}

// Forward applies max pooling.
//
// Input: [batch, channels, height, width]
// Output: [batch, channels, out_h, out_w]
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInputDevice("MaxPool2D.Forward", m.backend, input)

	outputRaw := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride)
	return tensor.New[float32, B](outputRaw, m.backend)
}

// Parameters returns an empty slice; pooling has no parameters.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map; pooling has no state.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict rejects any keys; pooling has no state.
func (m *MaxPool2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return checkNoUnexpected(stateDict)
}

// String returns a short description of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}
