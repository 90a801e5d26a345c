package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension, turning
// [N, d1, d2, ...] into [N, d1*d2*...]. It has no trainable parameters.
type Flatten[B tensor.Backend] struct {
	backend B
}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend](backend B) *Flatten[B] {
	return &Flatten[B]{backend: backend}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInputDevice("Flatten.Forward", f.backend, input)

	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Flatten.Forward: expected at least 2D input, got shape %v", shape))
	}

	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	return input.Reshape(shape[0], features)
}

// Parameters returns an empty slice; flatten has no parameters.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map; flatten has no state.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict rejects any keys; flatten has no state.
func (f *Flatten[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return checkNoUnexpected(stateDict)
}

// String returns the layer name.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}
