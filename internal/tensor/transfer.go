package tensor

// To migrates a tensor to another backend, copying its storage and
// rebinding the device attribute. Values are never changed by a transfer;
// only placement is. The source tensor is left untouched.
//
// Moving between backends of different types changes the tensor's type
// parameter, so this is a free function rather than a method:
//
//	gpuTensor := tensor.To[float32](cpuTensor, gpuBackend)
func To[T DType, B1 Backend, B2 Backend](t *Tensor[T, B1], target B2) *Tensor[T, B2] {
	if t.Device() == target.Device() {
		// Same device: share storage, rebind the backend.
		return New[T, B2](t.Raw().Clone(), target)
	}
	return New[T, B2](t.Raw().DeepCopy(target.Device()), target)
}

// TransferRaw migrates untyped storage to the target backend's device.
// State-dict loading uses this to materialize persisted tensors on the
// device the caller asked for.
func TransferRaw(raw *RawTensor, target Backend) *RawTensor {
	if raw.Device() == target.Device() {
		return raw.Clone()
	}
	return raw.DeepCopy(target.Device())
}
