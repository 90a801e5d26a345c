// Package serialization implements the .kiln binary snapshot format.
//
// A snapshot persists a model's state dictionary: a flat map from
// parameter names to raw tensors. The on-disk layout is a 64-byte fixed
// header (magic, version, flags, sizes, SHA-256 checksum of the data
// section), a JSON header describing the model and each tensor, padding
// to a 64-byte boundary, and the tensor data itself.
//
// Device placement is not part of the payload. The header records the
// device the model was saved from for inspection purposes, but readers
// always materialize tensors on the device of the backend they are given,
// so a snapshot written on one device loads cleanly on any other.
//
// Readers validate untrusted input: checksums detect corruption, and
// header validation rejects overlapping tensor regions, out-of-bounds
// reads, and hostile tensor names.
package serialization
