package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Limits applied to untrusted snapshot input. A header is fully
// attacker-controlled until validated, so every quantity read from it is
// capped before it sizes an allocation or a read.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // JSON header bytes
	MaxDataSize      = int64(1) << 34    // Data section bytes (16 GiB)
	MaxMetadataSize  = 1024 * 1024       // Combined metadata key/value bytes
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and counts but not the data layout.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateTensorName rejects names that could be used for path traversal
// or that bypass length limits.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
			Err:     ErrTensorNameTooLong,
		}
	}

	for _, rule := range []struct {
		bad    string
		reason string
	}{
		{"..", "contains '..' (path traversal attempt)"},
		{"/", "contains path separator"},
		{`\`, "contains path separator"},
		{"\x00", "contains null byte"},
	} {
		if strings.Contains(name, rule.bad) {
			return &ValidationError{
				Type:    "invalid_name",
				Tensor:  name,
				Details: rule.reason,
				Err:     ErrInvalidTensorName,
			}
		}
	}

	return nil
}

// ValidateTensorMeta checks one tensor's metadata in isolation: the name,
// the dtype, and that the recorded byte size is exactly what the shape
// and dtype require. A smaller recorded size would silently truncate the
// tensor on load; a larger one would read bytes that belong to no one.
func ValidateTensorMeta(meta *TensorMeta) error {
	if err := ValidateTensorName(meta.Name); err != nil {
		return err
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return &ValidationError{
			Type:    "invalid_dtype",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("unsupported dtype %q", meta.DType),
		}
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return &ValidationError{
			Type:    "invalid_shape",
			Tensor:  meta.Name,
			Details: err.Error(),
		}
	}

	if want := int64(shape.NumElements() * dtype.Size()); meta.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("size %d does not match shape %v of %s (%d bytes)", meta.Size, shape, meta.DType, want),
		}
	}

	return nil
}

// ValidateTensorOffsets checks for overlapping tensor regions and
// out-of-bounds access. Malformed files must not be able to alias one
// tensor's bytes into another or read past the data section.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	byOffset := make([]*TensorMeta, len(tensors))
	for i := range tensors {
		byOffset[i] = &tensors[i]
	}
	sort.Slice(byOffset, func(i, j int) bool {
		return byOffset[i].Offset < byOffset[j].Offset
	})

	// Walk regions in offset order, carrying the end of the previous one.
	var prev *TensorMeta
	var end int64
	for _, t := range byOffset {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
				Err:     ErrNegativeOffset,
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
				Err:     ErrOutOfBounds,
			}
		}
		if prev != nil && t.Offset < end {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: t.Name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
					prev.Offset, end, t.Offset, t.Offset+t.Size),
				Err: ErrOffsetOverlap,
			}
		}
		prev = t
		end = t.Offset + t.Size
	}

	return nil
}

// ValidateHeader performs header validation at the requested level.
// Strict validation additionally verifies each tensor's size against its
// shape and dtype and the layout of the data section.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if dataSize < 0 || dataSize > MaxDataSize {
		return &ValidationError{
			Type:    "data_too_large",
			Details: fmt.Sprintf("data size %d exceeds max %d", dataSize, MaxDataSize),
		}
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	var metadataSize int
	for key, value := range h.Metadata {
		metadataSize += len(key) + len(value)
	}
	if metadataSize > MaxMetadataSize {
		return &ValidationError{
			Type:    "metadata_too_large",
			Details: fmt.Sprintf("metadata %d bytes exceeds max %d", metadataSize, MaxMetadataSize),
		}
	}

	for i := range h.Tensors {
		meta := &h.Tensors[i]
		if level == ValidationStrict {
			if err := ValidateTensorMeta(meta); err != nil {
				return err
			}
			continue
		}
		if err := ValidateTensorName(meta.Name); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
