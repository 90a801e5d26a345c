// Package nn implements neural network modules for the Kiln ML Framework.
//
// This package provides the building blocks the snapshot machinery works
// against:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named tensors holding layer state
//   - Linear, Conv2D, MaxPool2D, ReLU, Flatten: Layers
//   - Sequential: Container for stacking layers
//   - DataParallel: Batch-splitting wrapper around a module
//   - Save / Load: Snapshot a module's state dict to disk and back
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input must live on the module's device; layers panic with a
	// *tensor.DeviceError on mismatch.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Returns an empty slice for
	// modules without parameters (e.g. activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	// Container modules prefix nested names to avoid collisions.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary
	// into the module's existing storage. Names, shapes, and dtypes
	// must match exactly.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// loadInto validates a state dict entry against the expected shape and
// copies its values into dst. Shared by all layer LoadStateDict
// implementations.
func loadInto(stateDict map[string]*tensor.RawTensor, name string, want tensor.Shape, dst []float32) error {
	raw, ok := stateDict[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst, raw.AsFloat32())
	return nil
}

// checkNoUnexpected rejects state dict keys beyond the given parameter
// names. Loading is strict in both directions: a key the module does not
// own means the snapshot was produced by a different architecture.
func checkNoUnexpected(stateDict map[string]*tensor.RawTensor, names ...string) error {
	for key := range stateDict {
		expected := false
		for _, name := range names {
			if key == name {
				expected = true
				break
			}
		}
		if !expected {
			return fmt.Errorf("unexpected key %q in state dict", key)
		}
	}
	return nil
}

// checkInputDevice panics with a *tensor.DeviceError when input storage
// does not live on the layer's device.
func checkInputDevice[B tensor.Backend](context string, backend B, input *tensor.Tensor[float32, B]) {
	if err := tensor.CheckSameDevice(context, backend.Device(), input.Device()); err != nil {
		panic(err)
	}
}
