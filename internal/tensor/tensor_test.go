package tensor

import (
	"errors"
	"testing"
)

// fakeBackend implements just enough of Backend for tensor-level tests.
type fakeBackend struct {
	device Device
}

func (f *fakeBackend) Add(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) Sub(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) Mul(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) MatMul(a, b *RawTensor) *RawTensor {
	return a.Clone()
}
func (f *fakeBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	return input.Clone()
}
func (f *fakeBackend) MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor {
	return input.Clone()
}
func (f *fakeBackend) ReLU(x *RawTensor) *RawTensor { return x.Clone() }
func (f *fakeBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	out := t.Clone()
	out.shape = newShape.Clone()
	out.stride = newShape.ComputeStrides()
	return out
}
func (f *fakeBackend) Transpose(t *RawTensor, axes ...int) *RawTensor { return t.Clone() }
func (f *fakeBackend) Name() string                                   { return "fake" }
func (f *fakeBackend) Device() Device                                 { return f.device }

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate({2,3}) = %v, want nil", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Validate({2,0}) should fail")
	}
	if err := (Shape{-1}).Validate(); err == nil {
		t.Error("Validate({-1}) should fail")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides({2,3,4}) = %v, want %v", strides, want)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	shape, needs, err := BroadcastShapes(Shape{3, 1}, Shape{3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if !shape.Equal(Shape{3, 5}) || !needs {
		t.Errorf("BroadcastShapes({3,1},{3,5}) = %v, %v", shape, needs)
	}

	if _, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5}); err == nil {
		t.Error("incompatible shapes should fail to broadcast")
	}
}

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatal(err)
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize() = %d, want 24", raw.ByteSize())
	}
	if raw.Device() != CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}

	if _, err := NewRaw(Shape{0}, Float32, CPU); err == nil {
		t.Error("NewRaw with zero dimension should fail")
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float32, CPU)
	raw.AsFloat32()[0] = 42

	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("original should not be unique after Clone")
	}
	if clone.AsFloat32()[0] != 42 {
		t.Error("clone should share storage")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("original should be unique again after clone Release")
	}
}

func TestRawTensorDeepCopy(t *testing.T) {
	raw, _ := NewRaw(Shape{3}, Float32, WebGPU)
	data := raw.AsFloat32()
	data[0], data[1], data[2] = 1, 2, 3

	cp := raw.DeepCopy(CPU)
	if cp.Device() != CPU {
		t.Errorf("DeepCopy device = %v, want CPU", cp.Device())
	}
	cp.AsFloat32()[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("DeepCopy should not share storage")
	}
}

func TestFromSlice(t *testing.T) {
	b := &fakeBackend{device: CPU}

	tt, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	if err != nil {
		t.Fatal(err)
	}
	if tt.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", tt.At(1, 2))
	}

	if _, err := FromSlice([]float32{1, 2}, Shape{2, 3}, b); err == nil {
		t.Error("FromSlice with wrong element count should fail")
	}
}

func TestCreation(t *testing.T) {
	b := &fakeBackend{device: CPU}

	ones := Ones[float32](Shape{2, 2}, b)
	for _, v := range ones.Data() {
		if v != 1 {
			t.Fatalf("Ones produced %v", v)
		}
	}

	full := Full[float32](Shape{3}, 2.5, b)
	for _, v := range full.Data() {
		if v != 2.5 {
			t.Fatalf("Full produced %v", v)
		}
	}

	randn := Randn[float32](Shape{101}, b)
	allZero := true
	for _, v := range randn.Data() {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("Randn produced all zeros")
	}
}

func TestTransferTo(t *testing.T) {
	cpu := &fakeBackend{device: CPU}
	gpu := &fakeBackend{device: WebGPU}

	src, _ := FromSlice([]float32{1, 2, 3}, Shape{3}, cpu)
	moved := To(src, gpu)

	if moved.Device() != WebGPU {
		t.Errorf("moved device = %v, want WebGPU", moved.Device())
	}
	for i, v := range moved.Data() {
		if v != src.Data()[i] {
			t.Errorf("transfer changed value at %d: %v != %v", i, v, src.Data()[i])
		}
	}

	// Same-device transfer shares storage.
	same := To(src, cpu)
	same.Data()[0] = 7
	if src.Data()[0] != 7 {
		t.Error("same-device transfer should share storage")
	}
}

func TestDeviceError(t *testing.T) {
	err := CheckSameDevice("conv2d forward", CPU, WebGPU)
	if err == nil {
		t.Fatal("expected device mismatch error")
	}
	if !errors.Is(err, ErrDeviceMismatch) {
		t.Errorf("errors.Is(err, ErrDeviceMismatch) = false for %v", err)
	}

	if err := CheckSameDevice("conv2d forward", CPU, CPU); err != nil {
		t.Errorf("same device should pass, got %v", err)
	}

	unavail := &DeviceError{Kind: ErrDeviceUnavailable, Want: WebGPU, Context: "webgpu init"}
	if !errors.Is(unavail, ErrDeviceUnavailable) {
		t.Error("DeviceError should match ErrDeviceUnavailable")
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool} {
		parsed, ok := ParseDataType(dt.String())
		if !ok || parsed != dt {
			t.Errorf("ParseDataType(%q) = %v, %v", dt.String(), parsed, ok)
		}
	}
	for _, d := range []Device{CPU, WebGPU, CUDA, Metal} {
		parsed, ok := ParseDevice(d.String())
		if !ok || parsed != d {
			t.Errorf("ParseDevice(%q) = %v, %v", d.String(), parsed, ok)
		}
	}
}
