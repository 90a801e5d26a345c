package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kiln-ml/kiln/internal/tensor"
)

const kilnVersion = "0.1.0" // Current Kiln version

// Writer writes model snapshots in .kiln format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .kiln file writer. The file is created (or
// truncated) immediately.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: the path is where the caller wants the snapshot
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{file: file}, nil
}

// WriteStateDict writes a state dictionary to the file.
//
// savedDevice records where the parameters lived when the snapshot was
// taken; it is informational only, since loading always materializes
// tensors on the reader's target device.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, savedDevice tensor.Device, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return WriteTo(w.file, stateDict, modelType, savedDevice, metadata)
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo encodes a state dictionary in .kiln format to an io.Writer.
// Useful for writing into buffers or network connections.
func WriteTo(out io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, savedDevice tensor.Device, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		KilnVersion:   kilnVersion,
		ModelType:     modelType,
		SnapshotID:    uuid.NewString(),
		SavedDevice:   savedDevice.String(),
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Tensors are laid out in sorted name order so identical state dicts
	// produce identical layouts.
	tensorOrder := make([]string, 0, len(stateDict))
	for name := range stateDict {
		tensorOrder = append(tensorOrder, name)
	}
	sort.Strings(tensorOrder)

	var currentOffset int64
	for _, name := range tensorOrder {
		raw := stateDict[name]
		size := int64(raw.ByteSize())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})
		currentOffset += size
	}

	// Collect the data section to compute its checksum.
	tensorData := make([]byte, 0, currentOffset)
	for _, name := range tensorOrder {
		raw := stateDict[name]
		tensorData = append(tensorData, raw.Data()[:raw.ByteSize()]...)
	}
	checksum := ComputeChecksum(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	// Fixed header (64 bytes): magic, version, flags, header size, data
	// size, checksum. See format.go for the layout.
	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(tensorData)))
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := out.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}

	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Pad so the data section starts on a 64-byte boundary.
	currentPos := int64(FixedHeaderSize) + int64(len(headerJSON))
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := out.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := out.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}
