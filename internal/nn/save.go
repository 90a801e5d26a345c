package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Save writes a module's state dict to a .kiln snapshot.
//
// Wrapper modules such as DataParallel delegate StateDict to the module
// they wrap, so saving either form produces the same artifact.
//
// The device the parameters live on is recorded in the header for
// inspection, but does not constrain where the snapshot can be loaded.
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) (err error) {
	stateDict := module.StateDict()

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDict(stateDict, modelType, moduleDevice(module), metadata); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Load reads a .kiln snapshot into a pre-constructed module.
//
// The module must have the same architecture (parameter names, shapes,
// dtypes) as the one that was saved. Parameters are materialized on the
// backend's device regardless of the device recorded in the snapshot, so
// loading is how a model moves between devices:
//
//	gpuModel := buildModel(gpuBackend)
//	header, err := nn.Load("model.kiln", gpuBackend, gpuModel)
func Load[B tensor.Backend](path string, backend B, module Module[B]) (header serialization.Header, err error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to read state dict: %w", err)
	}

	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, fmt.Errorf("failed to load state dict: %w", err)
	}

	return reader.Header(), nil
}

// moduleDevice reports the device a module's parameters live on, CPU for
// parameterless modules.
func moduleDevice[B tensor.Backend](module Module[B]) tensor.Device {
	params := module.Parameters()
	if len(params) == 0 {
		return tensor.CPU
	}
	return params[0].Device()
}
