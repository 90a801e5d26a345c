// Copyright 2026 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and model snapshots.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, MaxPool2D
//   - Activations: ReLU
//   - Containers: Sequential, DataParallel
//   - Snapshots: Save, Load
//   - Utilities: Module interface, Parameter, Flatten
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    model := nn.NewSequential[*cpu.Backend](
//	        nn.NewLinear(784, 128, backend),
//	        nn.NewReLU(backend),
//	        nn.NewLinear(128, 10, backend),
//	    )
//
//	    output := model.Forward(input)
//	}
//
// # Snapshots
//
// Models persist as .kiln snapshot files holding the state dictionary, a
// flat map from parameter names to tensors:
//
//	err := nn.Save[*cpu.Backend](model, "model.kiln", "Sequential", nil)
//
// Loading materializes parameters on whatever backend is supplied, so a
// snapshot saved from a GPU model loads onto a CPU model and vice versa:
//
//	restored := buildModel(backend)
//	header, err := nn.Load("model.kiln", backend, restored)
//
// # Data Parallelism
//
// DataParallel splits inference batches across concurrent replicas of a
// module. It delegates state dict handling to the wrapped module, so a
// snapshot saved from a wrapped model loads into a bare one:
//
//	parallel := nn.NewDataParallel[*cpu.Backend](model, 4, backend)
//	output := parallel.Forward(batch)
package nn
