// Copyright 2026 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	internalnn "github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/tensor"
)

// Parameter represents a named tensor owned by a module, typically a
// layer's weight or bias. State dictionaries are built from parameters.
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "weight", "bias").
//
//	Tensor() *tensor.Tensor[float32, B]
//	    Returns the parameter tensor.
//
//	Device() tensor.Device
//	    Returns the device the parameter lives on.
type Parameter[B tensor.Backend] = internalnn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return internalnn.NewParameter(name, t)
}
