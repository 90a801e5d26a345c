package serialization

import (
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Format constants.
//
// A .kiln file starts with a 64-byte fixed header:
//
//	0x00-0x03  magic bytes "KILN"
//	0x04-0x07  format version (uint32, little-endian)
//	0x08-0x0B  flags
//	0x0C-0x0F  reserved
//	0x10-0x17  JSON header size (uint64)
//	0x18-0x1F  tensor data size (uint64)
//	0x20-0x3F  SHA-256 checksum of the tensor data
//
// The JSON header follows, then padding up to a 64-byte boundary, then the
// tensor data section.
const (
	MagicBytes      = "KILN"
	FormatVersion   = 1
	HeaderAlignment = 64 // Align tensor data to 64 bytes
	FixedHeaderSize = 64
	ChecksumSize    = 32 // SHA-256
	ChecksumOffset  = 0x20
)

// Data type string constants used in the JSON header.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Flags for the .kiln format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header is the JSON header of a .kiln file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .kiln format
	KilnVersion   string            `json:"kiln_version"`   // Version of Kiln that created this file
	ModelType     string            `json:"model_type"`     // Type of model (e.g., "Sequential", "LeNet")
	SnapshotID    string            `json:"snapshot_id"`    // Unique ID assigned at write time
	SavedDevice   string            `json:"saved_device"`   // Device the parameters lived on when saved
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g., "0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its header representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

// stringToDtype converts a header representation back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
