package tensor

import (
	"errors"
	"fmt"
)

// Device identifies the compute target a tensor's storage is bound to.
type Device int

// Supported compute devices. CUDA and Metal are reserved for future backends.
const (
	CPU Device = iota
	WebGPU
	CUDA
	Metal
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	case CUDA:
		return "CUDA"
	case Metal:
		return "Metal"
	default:
		return "Unknown"
	}
}

// ParseDevice resolves a device name as recorded in snapshot headers.
func ParseDevice(s string) (Device, bool) {
	switch s {
	case "CPU":
		return CPU, true
	case "WebGPU":
		return WebGPU, true
	case "CUDA":
		return CUDA, true
	case "Metal":
		return Metal, true
	default:
		return 0, false
	}
}

// Device error kinds. A model whose parameters live on one device rejects
// input bound to another with ErrDeviceMismatch; a backend that cannot
// reach its hardware reports ErrDeviceUnavailable.
var (
	ErrDeviceMismatch    = errors.New("device mismatch")
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// DeviceError carries the devices involved in a placement failure.
// It matches ErrDeviceMismatch or ErrDeviceUnavailable under errors.Is.
type DeviceError struct {
	Kind    error  // ErrDeviceMismatch or ErrDeviceUnavailable
	Want    Device // Device the operation required
	Got     Device // Device actually encountered (mismatch only)
	Context string // What was being attempted
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if errors.Is(e.Kind, ErrDeviceMismatch) {
		return fmt.Sprintf("%s: %v: expected %s, got %s", e.Context, e.Kind, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %v: %s", e.Context, e.Kind, e.Want)
}

// Unwrap exposes the error kind for errors.Is.
func (e *DeviceError) Unwrap() error {
	return e.Kind
}

// CheckSameDevice returns a *DeviceError when got differs from want.
func CheckSameDevice(context string, want, got Device) error {
	if want == got {
		return nil
	}
	return &DeviceError{
		Kind:    ErrDeviceMismatch,
		Want:    want,
		Got:     got,
		Context: context,
	}
}
