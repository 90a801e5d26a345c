package cpu

import (
	"testing"

	"github.com/kiln-ml/kiln/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestAdd(t *testing.T) {
	backend := New()

	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	got := backend.Add(a, b).AsFloat32()
	want := []float32{11, 22, 33, 44}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Add[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAddBroadcast(t *testing.T) {
	backend := New()

	// [2, 3] + [1, 3]: the row vector broadcasts over rows.
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	result := backend.Add(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", result.Shape())
	}

	got := result.AsFloat32()
	want := []float32{11, 22, 33, 14, 25, 36}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Add[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSubMul(t *testing.T) {
	backend := New()

	a := fromSlice(t, []float32{5, 6}, tensor.Shape{2})
	b := fromSlice(t, []float32{2, 3}, tensor.Shape{2})

	sub := backend.Sub(a, b).AsFloat32()
	if sub[0] != 3 || sub[1] != 3 {
		t.Errorf("Sub = %v, want [3 3]", sub)
	}

	mul := backend.Mul(a, b).AsFloat32()
	if mul[0] != 10 || mul[1] != 18 {
		t.Errorf("Mul = %v, want [10 18]", mul)
	}
}

func TestMatMul(t *testing.T) {
	backend := New()

	// [2,3] @ [3,2]
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", result.Shape())
	}

	got := result.AsFloat32()
	want := []float32{58, 64, 139, 154}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MatMul[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConv2D(t *testing.T) {
	backend := New()

	// 1x1x3x3 input, 1x1x2x2 kernel of ones: each output is a window sum.
	input := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	result := backend.Conv2D(input, kernel, 1, 0)
	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", result.Shape())
	}

	got := result.AsFloat32()
	want := []float32{12, 16, 24, 28}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Conv2D[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConv2DPadding(t *testing.T) {
	backend := New()

	// 1x1x2x2 input, 1x1x3x3 identity-center kernel, padding 1: output
	// equals the input.
	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := fromSlice(t, []float32{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}, tensor.Shape{1, 1, 3, 3})

	result := backend.Conv2D(input, kernel, 1, 1)
	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", result.Shape())
	}

	got := result.AsFloat32()
	for i, want := range []float32{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("Conv2D[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestConv2DMultiChannel(t *testing.T) {
	backend := New()

	// 2 input channels summed by a 2-channel kernel of ones.
	input := fromSlice(t, []float32{
		// channel 0
		1, 2,
		3, 4,
		// channel 1
		10, 20,
		30, 40,
	}, tensor.Shape{1, 2, 2, 2})
	kernel := fromSlice(t, []float32{1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 2, 2, 2})

	result := backend.Conv2D(input, kernel, 1, 0)
	got := result.AsFloat32()
	if got[0] != 110 {
		t.Errorf("Conv2D = %v, want 110", got[0])
	}
}

func TestMaxPool2D(t *testing.T) {
	backend := New()

	input := fromSlice(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4})

	result := backend.MaxPool2D(input, 2, 2)
	if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", result.Shape())
	}

	got := result.AsFloat32()
	want := []float32{6, 8, 14, 16}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MaxPool2D[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReLU(t *testing.T) {
	backend := New()

	input := fromSlice(t, []float32{-1, 0, 2, -3.5}, tensor.Shape{4})
	got := backend.ReLU(input).AsFloat32()
	want := []float32{0, 0, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReLU[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReshape(t *testing.T) {
	backend := New()

	input := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Reshape(input, tensor.Shape{3, 2})
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}
	if result.AsFloat32()[5] != 6 {
		t.Error("reshape should preserve data order")
	}
}

func TestTranspose(t *testing.T) {
	backend := New()

	input := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Transpose(input)
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}

	got := result.AsFloat32()
	want := []float32{1, 4, 2, 5, 3, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Transpose[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeviceMetadata(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Name() = %s", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v", backend.Device())
	}

	a := fromSlice(t, []float32{1}, tensor.Shape{1})
	if backend.ReLU(a).Device() != tensor.CPU {
		t.Error("results should be bound to the CPU device")
	}
}
