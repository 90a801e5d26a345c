// Copyright 2026 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	internalnn "github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = internalnn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return internalnn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer with a square kernel.
type Conv2D[B tensor.Backend] = internalnn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 6, 5, 1, 0, backend)  // in_channels=3, out_channels=6, kernel=5x5, stride=1, padding=0
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	return internalnn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = internalnn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
// A stride of 0 defaults to the kernel size.
//
// Example:
//
//	backend := cpu.New()
//	pool := nn.NewMaxPool2D(2, 2, backend)  // kernel=2, stride=2
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return internalnn.NewMaxPool2D(kernelSize, stride, backend)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = internalnn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
//
// Example:
//
//	relu := nn.NewReLU(backend)
func NewReLU[B tensor.Backend](backend B) *ReLU[B] {
	return internalnn.NewReLU(backend)
}

// Utilities

// Flatten reshapes [N, d1, d2, ...] inputs to [N, d1*d2*...].
type Flatten[B tensor.Backend] = internalnn.Flatten[B]

// NewFlatten creates a new flatten layer.
func NewFlatten[B tensor.Backend](backend B) *Flatten[B] {
	return internalnn.NewFlatten(backend)
}

// Sequential chains modules, feeding each module's output to the next.
type Sequential[B tensor.Backend] = internalnn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
//
// State dict keys are prefixed with the module index, so the third
// module's weight is stored as "2.weight".
//
// Example:
//
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(backend),
//	    nn.NewLinear(128, 10, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return internalnn.NewSequential(modules...)
}

// DataParallel wraps a module and splits forward batches across replicas.
type DataParallel[B tensor.Backend] = internalnn.DataParallel[B]

// NewDataParallel wraps a module for data-parallel inference.
//
// Forward splits the batch dimension into up to replicas chunks, runs the
// wrapped module on each chunk concurrently, and concatenates the results
// in order. StateDict and LoadStateDict delegate to the wrapped module, so
// snapshots are independent of the replica count.
//
// Example:
//
//	parallel := nn.NewDataParallel[*cpu.Backend](model, runtime.NumCPU(), backend)
//	output := parallel.Forward(batch)
func NewDataParallel[B tensor.Backend](module Module[B], replicas int, backend B) *DataParallel[B] {
	return internalnn.NewDataParallel(module, replicas, backend)
}
