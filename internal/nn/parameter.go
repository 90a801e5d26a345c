package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Parameter is a named tensor holding layer state (weights and biases).
//
// Parameters are what snapshots persist: every parameter reachable from a
// module appears in its state dict under a hierarchical name.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Device returns the device the parameter's storage is bound to.
func (p *Parameter[B]) Device() tensor.Device {
	return p.tensor.Device()
}
