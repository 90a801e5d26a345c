package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// MaxPool2D takes the maximum over kernelSize x kernelSize windows.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, H_out, W_out]
//
//	H_out = (H - kernelSize) / stride + 1
//	W_out = (W - kernelSize) / stride + 1
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	n, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if kernelSize > h || kernelSize > w {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, h, w))
	}

	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1

	output, err := tensor.NewRaw(tensor.Shape{n, c, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		maxPool2d(output.AsFloat32(), input.AsFloat32(), n, c, h, w, hOut, wOut, kernelSize, stride, cpu.pool)
	case tensor.Float64:
		maxPool2d(output.AsFloat64(), input.AsFloat64(), n, c, h, w, hOut, wOut, kernelSize, stride, cpu.pool)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func maxPool2d[T float32 | float64](
	out, in []T,
	n, c, h, w, hOut, wOut, kernelSize, stride int,
	pool parallel.Config,
) {
	pool.MinChunkSize = 1
	parallel.ForBatch(n, c, func(b, ch int) {
		inPlane := in[(b*c+ch)*h*w:]
		outPlane := out[(b*c+ch)*hOut*wOut:]
		for oy := 0; oy < hOut; oy++ {
			for ox := 0; ox < wOut; ox++ {
				iy0 := oy * stride
				ix0 := ox * stride
				best := inPlane[iy0*w+ix0]
				for ky := 0; ky < kernelSize; ky++ {
					for kx := 0; kx < kernelSize; kx++ {
						if v := inPlane[(iy0+ky)*w+ix0+kx]; v > best {
							best = v
						}
					}
				}
				outPlane[oy*wOut+ox] = best
			}
		}
	}, pool)
}
