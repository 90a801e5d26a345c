package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// ReLU applies the rectified linear unit max(0, x) element-wise.
// It has no trainable parameters.
type ReLU[B tensor.Backend] struct {
	backend B
}

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend](backend B) *ReLU[B] {
	return &ReLU[B]{backend: backend}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInputDevice("ReLU.Forward", r.backend, input)

	outputRaw := r.backend.ReLU(input.Raw())
	return tensor.New[float32, B](outputRaw, r.backend)
}

// Parameters returns an empty slice; activations have no parameters.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map; activations have no state.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict rejects any keys; activations have no state.
func (r *ReLU[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return checkNoUnexpected(stateDict)
}

// String returns the activation name.
func (r *ReLU[B]) String() string {
	return "ReLU()"
}
