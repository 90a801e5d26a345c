package webgpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Add performs element-wise addition on GPU with broadcasting.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU with broadcasting.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU with broadcasting.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// MatMul performs 2D matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// ReLU applies max(0, x) element-wise on GPU.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// Conv2D performs direct 2D convolution on GPU.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()

	if len(inShape) != 4 {
		panic(fmt.Sprintf("webgpu: conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("webgpu: conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("webgpu: conv2d: input channels %d != kernel channels %d", inShape[1], kShape[1]))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid padding %d", padding))
	}

	hOut := (inShape[2]+2*padding-kShape[2])/stride + 1
	wOut := (inShape[3]+2*padding-kShape[3])/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("webgpu: conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	result, err := b.runConv2D(input, kernel, stride, padding)
	if err != nil {
		panic("webgpu: Conv2D: " + err.Error())
	}
	return result
}

// MaxPool2D takes the maximum over kernelSize x kernelSize windows on GPU.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inShape := input.Shape()

	if len(inShape) != 4 {
		panic(fmt.Sprintf("webgpu: maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inShape)))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("webgpu: maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("webgpu: maxpool2d: invalid stride %d", stride))
	}
	if kernelSize > inShape[2] || kernelSize > inShape[3] {
		panic(fmt.Sprintf("webgpu: maxpool2d: kernel size %d too large for input %dx%d",
			kernelSize, inShape[2], inShape[3]))
	}

	result, err := b.runMaxPool2D(input, kernelSize, stride)
	if err != nil {
		panic("webgpu: MaxPool2D: " + err.Error())
	}
	return result
}

// Reshape returns a tensor sharing storage with a new shape. Host memory
// already mirrors the GPU result, so this is a metadata change.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("webgpu: reshape: %v", err))
	}
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	out := t.Clone()
	return out.WithShape(newShape)
}

// Transpose transposes a 2D matrix on GPU. Higher-rank permutations are
// not supported by this backend.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if len(t.Shape()) != 2 {
		panic(fmt.Sprintf("webgpu: transpose: only 2D tensors are supported, got %dD", len(t.Shape())))
	}
	if len(axes) != 0 && !(len(axes) == 2 && axes[0] == 1 && axes[1] == 0) {
		panic(fmt.Sprintf("webgpu: transpose: unsupported axes %v", axes))
	}

	result, err := b.runTranspose(t)
	if err != nil {
		panic("webgpu: Transpose: " + err.Error())
	}
	return result
}
