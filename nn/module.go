// Copyright 2026 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	internalnn "github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all parameters
//   - StateDict: Export parameters for serialization
//   - LoadStateDict: Import parameters from serialization
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(backend),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = internalnn.Module[B]

// Save saves a module's state dictionary to a .kiln snapshot file.
//
// Wrapper modules such as DataParallel delegate StateDict to the module
// they wrap, so saving the wrapper or the bare module produces the same
// artifact. The device the parameters live on is recorded in the snapshot
// header for inspection but does not constrain where it can be loaded.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - modelType: Type name of the model (e.g., "Sequential", "LeNet")
//   - metadata: Optional metadata (can be nil)
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save[*cpu.Backend](model, "model.kiln", "Linear", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	return internalnn.Save(module, path, modelType, metadata)
}

// Load loads a .kiln snapshot into a pre-constructed module.
//
// The module must have the same architecture (parameter names, shapes,
// dtypes) as the one that was saved. Parameters are materialized on the
// given backend's device regardless of the device the snapshot was saved
// from, so loading is how a model moves between devices:
//
//	gpu, err := webgpu.New()
//	model := buildModel(gpu)
//	header, err := nn.Load("model.kiln", gpu, model)
//
// Returns the snapshot header and an error if loading fails.
func Load[B tensor.Backend](path string, backend B, module Module[B]) (serialization.Header, error) {
	return internalnn.Load(path, backend, module)
}
