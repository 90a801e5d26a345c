package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// stubBackend satisfies tensor.Backend for tests that only need a device
// to materialize tensors on.
type stubBackend struct {
	device tensor.Device
}

func (s stubBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor    { panic("not implemented") }
func (s stubBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor    { panic("not implemented") }
func (s stubBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor    { panic("not implemented") }
func (s stubBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor { panic("not implemented") }
func (s stubBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor      { panic("not implemented") }
func (s stubBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("not implemented")
}
func (s stubBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	panic("not implemented")
}
func (s stubBackend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	panic("not implemented")
}
func (s stubBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	panic("not implemented")
}
func (s stubBackend) Name() string          { return "Stub" }
func (s stubBackend) Device() tensor.Device { return s.device }

func testStateDict(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()

	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	bias, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(bias.AsFloat32(), []float32{0.1, 0.2, 0.3})

	return map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.kiln")
	stateDict := testStateDict(t)

	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if err := writer.WriteStateDict(stateDict, "TestModel", tensor.CPU, map[string]string{"source": "test"}); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer reader.Close()

	header := reader.Header()
	if header.ModelType != "TestModel" {
		t.Errorf("model type = %q, want TestModel", header.ModelType)
	}
	if header.SavedDevice != "CPU" {
		t.Errorf("saved device = %q, want CPU", header.SavedDevice)
	}
	if header.SnapshotID == "" {
		t.Error("snapshot ID should be assigned at write time")
	}
	if header.Metadata["source"] != "test" {
		t.Errorf("metadata = %v", header.Metadata)
	}

	loaded, err := reader.ReadStateDict(stubBackend{device: tensor.CPU})
	if err != nil {
		t.Fatalf("failed to read state dict: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d tensors, want 2", len(loaded))
	}

	got := loaded["weight"].AsFloat32()
	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("weight[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !loaded["bias"].Shape().Equal(tensor.Shape{3}) {
		t.Errorf("bias shape = %v", loaded["bias"].Shape())
	}
}

func TestDeviceRemap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.kiln")
	stateDict := testStateDict(t)

	writer, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.WriteStateDict(stateDict, "TestModel", tensor.WebGPU, nil); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if saved, ok := reader.SavedDevice(); !ok || saved != tensor.WebGPU {
		t.Errorf("saved device = %v, %v", saved, ok)
	}

	// The target backend's device wins over the saved device.
	loaded, err := reader.ReadStateDict(stubBackend{device: tensor.CPU})
	if err != nil {
		t.Fatal(err)
	}
	for name, raw := range loaded {
		if raw.Device() != tensor.CPU {
			t.Errorf("tensor %s on %v, want CPU", name, raw.Device())
		}
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.kiln")

	writer, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.WriteStateDict(testStateDict(t), "TestModel", tensor.CPU, nil); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	// Flip a byte in the data section (the last byte of the file).
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	contents[len(contents)-1] ^= 0xFF
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = NewReader(path)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}

	// Skipping validation lets the corrupted file open.
	reader, err := NewReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: true,
		ValidationLevel:        ValidationStrict,
	})
	if err != nil {
		t.Fatalf("skip-checksum open failed: %v", err)
	}
	reader.Close()
}

func TestInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.kiln")
	junk := make([]byte, 128)
	copy(junk, "NOPE")
	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewReader(path)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	stateDict := testStateDict(t)

	var buf bytes.Buffer
	if err := WriteTo(&buf, stateDict, "BufferModel", tensor.CPU, nil); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	loaded, header, err := ReadFrom(&buf, stubBackend{device: tensor.CPU})
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if header.ModelType != "BufferModel" {
		t.Errorf("model type = %q", header.ModelType)
	}
	if len(loaded) != len(stateDict) {
		t.Errorf("got %d tensors, want %d", len(loaded), len(stateDict))
	}
}

func TestDeterministicLayout(t *testing.T) {
	stateDict := testStateDict(t)

	var a, b bytes.Buffer
	if err := WriteTo(&a, stateDict, "M", tensor.CPU, nil); err != nil {
		t.Fatal(err)
	}
	if err := WriteTo(&b, stateDict, "M", tensor.CPU, nil); err != nil {
		t.Fatal(err)
	}

	_, headerA, err := ReadFrom(bytes.NewReader(a.Bytes()), stubBackend{device: tensor.CPU})
	if err != nil {
		t.Fatal(err)
	}
	_, headerB, err := ReadFrom(bytes.NewReader(b.Bytes()), stubBackend{device: tensor.CPU})
	if err != nil {
		t.Fatal(err)
	}

	// Sorted name order makes layouts reproducible across writes.
	for i := range headerA.Tensors {
		if headerA.Tensors[i].Name != headerB.Tensors[i].Name {
			t.Errorf("tensor order differs: %q vs %q", headerA.Tensors[i].Name, headerB.Tensors[i].Name)
		}
		if headerA.Tensors[i].Offset != headerB.Tensors[i].Offset {
			t.Errorf("tensor %s offset differs", headerA.Tensors[i].Name)
		}
	}
	if headerA.Tensors[0].Name != "bias" {
		t.Errorf("first tensor = %q, want bias (sorted order)", headerA.Tensors[0].Name)
	}
}

func TestValidateTensorOffsets(t *testing.T) {
	overlapping := []TensorMeta{
		{Name: "a", Offset: 0, Size: 100},
		{Name: "b", Offset: 50, Size: 100},
	}
	if err := ValidateTensorOffsets(overlapping, 1000); !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("err = %v, want ErrOffsetOverlap", err)
	}

	outOfBounds := []TensorMeta{
		{Name: "a", Offset: 0, Size: 2000},
	}
	if err := ValidateTensorOffsets(outOfBounds, 1000); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}

	negative := []TensorMeta{
		{Name: "a", Offset: -8, Size: 100},
	}
	if err := ValidateTensorOffsets(negative, 1000); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("err = %v, want ErrNegativeOffset", err)
	}

	valid := []TensorMeta{
		{Name: "a", Offset: 0, Size: 100},
		{Name: "b", Offset: 100, Size: 100},
	}
	if err := ValidateTensorOffsets(valid, 1000); err != nil {
		t.Errorf("valid layout rejected: %v", err)
	}
}

func TestValidateTensorName(t *testing.T) {
	for _, name := range []string{"weight", "0.weight", "conv1.bias"} {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) = %v", name, err)
		}
	}

	for _, name := range []string{"../etc/passwd", "a/b", `a\b`, "nul\x00byte"} {
		if err := ValidateTensorName(name); !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("ValidateTensorName(%q) = %v, want ErrInvalidTensorName", name, err)
		}
	}
}

func TestValidateTensorMeta(t *testing.T) {
	valid := TensorMeta{Name: "weight", DType: "float32", Shape: []int{2, 3}, Size: 24}
	if err := ValidateTensorMeta(&valid); err != nil {
		t.Errorf("valid meta rejected: %v", err)
	}

	badDtype := TensorMeta{Name: "weight", DType: "float16", Shape: []int{2, 3}, Size: 12}
	if err := ValidateTensorMeta(&badDtype); err == nil {
		t.Error("unknown dtype should be rejected")
	}

	// 2x3 float32 needs 24 bytes. A smaller recorded size would leave
	// part of the materialized tensor zero-filled.
	undersized := TensorMeta{Name: "weight", DType: "float32", Shape: []int{2, 3}, Size: 16}
	if err := ValidateTensorMeta(&undersized); err == nil {
		t.Error("size smaller than the shape requires should be rejected")
	}

	oversized := TensorMeta{Name: "weight", DType: "float32", Shape: []int{2, 3}, Size: 32}
	if err := ValidateTensorMeta(&oversized); err == nil {
		t.Error("size larger than the shape requires should be rejected")
	}
}

func TestValidateHeaderChecksTensorSizes(t *testing.T) {
	header := Header{
		FormatVersion: FormatVersion,
		Tensors: []TensorMeta{
			{Name: "weight", DType: "float32", Shape: []int{2, 3}, Offset: 0, Size: 16},
		},
	}
	if err := ValidateHeader(&header, 16, ValidationStrict); err == nil {
		t.Error("strict validation should reject a size/shape mismatch")
	}

	header.Tensors[0].Size = 24
	if err := ValidateHeader(&header, 24, ValidationStrict); err != nil {
		t.Errorf("consistent header rejected: %v", err)
	}
}

func TestReadFromRejectsOversizedDataSection(t *testing.T) {
	// A fixed header claiming an absurd data section must be rejected
	// before anything is allocated for it.
	fixed := make([]byte, FixedHeaderSize)
	copy(fixed, MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[16:24], 2)     // header: "{}"
	binary.LittleEndian.PutUint64(fixed[24:32], 1<<62) // data section
	input := append(fixed, '{', '}')

	_, _, err := ReadFrom(bytes.NewReader(input), stubBackend{device: tensor.CPU})
	if err == nil {
		t.Fatal("oversized data section should be rejected")
	}
	if !strings.Contains(err.Error(), "exceeds max") {
		t.Errorf("err = %v, want size cap failure", err)
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("hello kiln")
	sum := ComputeChecksum(data)

	fromReader, err := ComputeChecksumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if sum != fromReader {
		t.Error("reader checksum differs from in-memory checksum")
	}

	if err := ValidateChecksum(sum, sum); err != nil {
		t.Errorf("matching checksums rejected: %v", err)
	}

	var other [32]byte
	if err := ValidateChecksum(sum, other); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}
}
