package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), result.AsFloat32()
		for i, v := range in {
			if v > 0 {
				out[i] = v
			}
		}
	case tensor.Float64:
		in, out := x.AsFloat64(), result.AsFloat64()
		for i, v := range in {
			if v > 0 {
				out[i] = v
			}
		}
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}

	return result
}

// Reshape returns a tensor sharing storage with a new shape.
// The element count must be preserved.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	// Contiguous row-major storage: reshape is a metadata change.
	out := t.Clone()
	return out.WithShape(newShape)
}

// Transpose permutes dimensions, materializing the result. With no axes,
// a 2D tensor is transposed; higher ranks require explicit axes.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()

	if len(axes) == 0 {
		if len(shape) != 2 {
			panic(fmt.Sprintf("transpose: axes required for %dD tensor", len(shape)))
		}
		axes = []int{1, 0}
	}
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), len(shape)))
	}

	seen := make([]bool, len(axes))
	outShape := make(tensor.Shape, len(axes))
	for i, ax := range axes {
		if ax < 0 || ax >= len(shape) || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	elemSize := t.DType().Size()
	src := t.Data()
	dst := result.Data()

	for i := 0; i < t.NumElements(); i++ {
		// Decompose the output index, map through axes to the input index.
		rem := i
		srcIdx := 0
		for d := 0; d < len(outShape); d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += idx * inStrides[axes[d]]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}

	return result
}
