package nn_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func input2D(t *testing.T, backend *cpu.CPUBackend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	in, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func TestLinearForward(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	// Fix the parameters so the output is predictable.
	copy(layer.Weight().Tensor().Data(), []float32{
		1, 0, 0,
		0, 1, 0,
	})
	copy(layer.Bias().Tensor().Data(), []float32{10, 20})

	in := input2D(t, backend, []float32{1, 2, 3}, tensor.Shape{1, 3})
	out := layer.Forward(in)

	if !out.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("shape = %v, want [1 2]", out.Shape())
	}
	got := out.Data()
	if got[0] != 11 || got[1] != 22 {
		t.Errorf("output = %v, want [11 22]", got)
	}
}

func TestConv2DForwardShape(t *testing.T) {
	backend := cpu.New()
	conv := nn.NewConv2D(3, 6, 5, 1, 0, backend)

	in := tensor.Zeros[float32](tensor.Shape{2, 3, 32, 32}, backend)
	out := conv.Forward(in)

	if !out.Shape().Equal(tensor.Shape{2, 6, 28, 28}) {
		t.Errorf("shape = %v, want [2 6 28 28]", out.Shape())
	}

	outH, outW := conv.OutputSize(32, 32)
	if outH != 28 || outW != 28 {
		t.Errorf("OutputSize = %d, %d", outH, outW)
	}
}

func TestFlatten(t *testing.T) {
	backend := cpu.New()
	flatten := nn.NewFlatten(backend)

	in := tensor.Zeros[float32](tensor.Shape{2, 16, 5, 5}, backend)
	out := flatten.Forward(in)

	if !out.Shape().Equal(tensor.Shape{2, 400}) {
		t.Errorf("shape = %v, want [2 400]", out.Shape())
	}
}

func TestSequentialForward(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewReLU(backend),
		nn.NewLinear(3, 2, backend),
	)

	in := tensor.Zeros[float32](tensor.Shape{5, 4}, backend)
	out := model.Forward(in)

	if !out.Shape().Equal(tensor.Shape{5, 2}) {
		t.Errorf("shape = %v, want [5 2]", out.Shape())
	}
	if len(model.Parameters()) != 4 {
		t.Errorf("parameters = %d, want 4", len(model.Parameters()))
	}
}

func TestSequentialStateDictKeys(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewReLU(backend),
		nn.NewLinear(3, 2, backend),
	)

	stateDict := model.StateDict()
	for _, key := range []string{"0.weight", "0.bias", "2.weight", "2.bias"} {
		if _, ok := stateDict[key]; !ok {
			t.Errorf("missing key %q in state dict", key)
		}
	}
	if len(stateDict) != 4 {
		t.Errorf("state dict has %d entries, want 4", len(stateDict))
	}
}

func TestLoadStateDictShapeMismatch(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	wrong, err := tensor.NewRaw(tensor.Shape{5, 5}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	err = layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": wrong,
		"bias":   layer.Bias().Tensor().Raw(),
	})
	if err == nil {
		t.Error("shape mismatch should be rejected")
	}
}

func TestLoadStateDictMissingKey(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	err := layer.LoadStateDict(map[string]*tensor.RawTensor{})
	if err == nil {
		t.Error("missing keys should be rejected")
	}
}

func TestLoadStateDictDTypeMismatch(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	// Right shape, wrong element type.
	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	err = layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   layer.Bias().Tensor().Raw(),
	})
	if err == nil {
		t.Fatal("dtype mismatch should be rejected")
	}
	if !strings.Contains(err.Error(), "dtype mismatch") {
		t.Errorf("err = %v, want dtype mismatch", err)
	}
}

func TestLinearLoadStateDictUnexpectedKey(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	err := layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": layer.Weight().Tensor().Raw(),
		"bias":   layer.Bias().Tensor().Raw(),
		"gamma":  layer.Bias().Tensor().Raw(),
	})
	if err == nil {
		t.Fatal("unexpected key should be rejected")
	}
	if !strings.Contains(err.Error(), "unexpected key") {
		t.Errorf("err = %v, want unexpected key", err)
	}
}

func TestSequentialLoadStateDictMissingLayer(t *testing.T) {
	backend := cpu.New()
	small := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 8, backend),
		nn.NewReLU(backend),
		nn.NewLinear(8, 2, backend),
	)
	deep := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 8, backend),
		nn.NewReLU(backend),
		nn.NewLinear(8, 2, backend),
		nn.NewReLU(backend),
		nn.NewLinear(2, 2, backend),
	)

	// No keys for module 4: the final layer would keep its random init.
	err := deep.LoadStateDict(small.StateDict())
	if err == nil {
		t.Fatal("state dict missing a layer's keys should be rejected")
	}
	if !strings.Contains(err.Error(), "module 4") {
		t.Errorf("err = %v, want failure at module 4", err)
	}
}

func TestSequentialLoadStateDictUnexpectedKey(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewReLU(backend),
		nn.NewLinear(3, 2, backend),
	)

	extra, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	// A key outside any module's index range.
	stateDict := model.StateDict()
	stateDict["9.weight"] = extra
	if err := model.LoadStateDict(stateDict); err == nil {
		t.Error("key addressed past the last module should be rejected")
	}

	// A key addressed to a parameterless module.
	stateDict = model.StateDict()
	stateDict["1.weight"] = extra
	if err := model.LoadStateDict(stateDict); err == nil {
		t.Error("key addressed to an activation should be rejected")
	}
}

func TestForwardRejectsWrongDevice(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	// Storage tagged with a different device than the layer's backend.
	raw, err := tensor.NewRaw(tensor.Shape{1, 3}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatal(err)
	}
	in := tensor.New[float32, *cpu.CPUBackend](raw, backend)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on device mismatch")
		}
		devErr, ok := r.(*tensor.DeviceError)
		if !ok {
			t.Fatalf("panic value = %T, want *tensor.DeviceError", r)
		}
		if !errors.Is(devErr, tensor.ErrDeviceMismatch) {
			t.Errorf("err = %v, want ErrDeviceMismatch", devErr)
		}
	}()
	layer.Forward(in)
}

func TestDataParallelMatchesPlainForward(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 8, backend),
		nn.NewReLU(backend),
		nn.NewLinear(8, 2, backend),
	)
	parallel := nn.NewDataParallel[*cpu.CPUBackend](model, 3, backend)

	in := tensor.Randn[float32](tensor.Shape{7, 4}, backend)

	plain := model.Forward(in).Data()
	split := parallel.Forward(in).Data()

	if len(plain) != len(split) {
		t.Fatalf("output sizes differ: %d vs %d", len(plain), len(split))
	}
	for i := range plain {
		if plain[i] != split[i] {
			t.Errorf("output[%d] = %v, want %v", i, split[i], plain[i])
		}
	}
}

func TestDataParallelSmallBatch(t *testing.T) {
	backend := cpu.New()
	model := nn.NewLinear(4, 2, backend)
	parallel := nn.NewDataParallel[*cpu.CPUBackend](model, 8, backend)

	// Batch smaller than the replica count.
	in := tensor.Randn[float32](tensor.Shape{3, 4}, backend)
	out := parallel.Forward(in)

	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("shape = %v, want [3 2]", out.Shape())
	}
}

func TestDataParallelDelegatesState(t *testing.T) {
	backend := cpu.New()
	model := nn.NewLinear(4, 2, backend)
	parallel := nn.NewDataParallel[*cpu.CPUBackend](model, 4, backend)

	wrapped := parallel.StateDict()
	bare := model.StateDict()
	if len(wrapped) != len(bare) {
		t.Fatalf("wrapper state dict has %d entries, bare has %d", len(wrapped), len(bare))
	}
	for key := range bare {
		if _, ok := wrapped[key]; !ok {
			t.Errorf("wrapper state dict missing %q", key)
		}
	}

	if parallel.Module() != nn.Module[*cpu.CPUBackend](model) {
		t.Error("Module() should return the wrapped module")
	}
}
