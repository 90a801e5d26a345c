package nn

import (
	"fmt"
	"sync"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// DataParallel wraps a module and splits each forward batch across
// concurrent replicas. Every replica runs the same underlying module in
// its own goroutine; forward passes read parameters but never mutate
// them, so the module is shared rather than copied.
//
// The wrapper is transparent to persistence: StateDict and LoadStateDict
// delegate to the wrapped module, so a snapshot written from a
// DataParallel model loads into the bare module (and vice versa)
// regardless of the replica count.
type DataParallel[B tensor.Backend] struct {
	module   Module[B]
	replicas int
	backend  B
}

// NewDataParallel wraps module with a batch-splitting forward pass using
// the given number of replicas.
func NewDataParallel[B tensor.Backend](module Module[B], replicas int, backend B) *DataParallel[B] {
	if replicas <= 0 {
		panic(fmt.Sprintf("dataparallel: invalid replica count %d", replicas))
	}
	return &DataParallel[B]{
		module:   module,
		replicas: replicas,
		backend:  backend,
	}
}

// Module returns the wrapped module. Callers persisting a data-parallel
// model can also save the wrapper directly; both produce the same
// snapshot.
func (d *DataParallel[B]) Module() Module[B] {
	return d.module
}

// Replicas returns the configured replica count.
func (d *DataParallel[B]) Replicas() int {
	return d.replicas
}

// Forward scatters the batch dimension across replicas, runs the wrapped
// module concurrently on each slice, and gathers the results in order.
//
// Batches smaller than the replica count use one replica per sample.
func (d *DataParallel[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInputDevice("DataParallel.Forward", d.backend, input)

	shape := input.Shape()
	if len(shape) < 1 {
		panic(fmt.Sprintf("DataParallel.Forward: expected batched input, got shape %v", shape))
	}

	batch := shape[0]
	replicas := d.replicas
	if batch < replicas {
		replicas = batch
	}
	if replicas <= 1 {
		return d.module.Forward(input)
	}

	chunks := scatterBatch(input.Raw(), replicas)

	outputs := make([]*tensor.RawTensor, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk *tensor.RawTensor) {
			defer wg.Done()
			part := tensor.New[float32, B](chunk, d.backend)
			outputs[i] = d.module.Forward(part).Raw()
		}(i, chunk)
	}
	wg.Wait()

	return tensor.New[float32, B](gatherBatch(outputs, batch), d.backend)
}

// Parameters returns the wrapped module's parameters.
func (d *DataParallel[B]) Parameters() []*Parameter[B] {
	return d.module.Parameters()
}

// StateDict returns the wrapped module's state dict. No wrapper prefix is
// added, keeping snapshots independent of the replica configuration.
func (d *DataParallel[B]) StateDict() map[string]*tensor.RawTensor {
	return d.module.StateDict()
}

// LoadStateDict loads into the wrapped module.
func (d *DataParallel[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.module.LoadStateDict(stateDict)
}

// String returns a short description of the wrapper.
func (d *DataParallel[B]) String() string {
	return fmt.Sprintf("DataParallel(replicas=%d)", d.replicas)
}

// scatterBatch splits a batched tensor into n contiguous slices along the
// batch dimension. Row-major layout makes each slice a contiguous byte
// range.
func scatterBatch(raw *tensor.RawTensor, n int) []*tensor.RawTensor {
	shape := raw.Shape()
	batch := shape[0]
	rowBytes := raw.ByteSize() / batch

	base := batch / n
	extra := batch % n

	chunks := make([]*tensor.RawTensor, 0, n)
	row := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		if size == 0 {
			continue
		}

		chunkShape := append(tensor.Shape{size}, shape[1:]...)
		chunk, err := tensor.NewRaw(chunkShape, raw.DType(), raw.Device())
		if err != nil {
			panic(fmt.Sprintf("dataparallel: scatter: %v", err))
		}
		copy(chunk.Data(), raw.Data()[row*rowBytes:(row+size)*rowBytes])
		chunks = append(chunks, chunk)
		row += size
	}
	return chunks
}

// gatherBatch concatenates per-replica outputs along the batch dimension.
func gatherBatch(outputs []*tensor.RawTensor, batch int) *tensor.RawTensor {
	first := outputs[0]
	outShape := append(tensor.Shape{batch}, first.Shape()[1:]...)

	result, err := tensor.NewRaw(outShape, first.DType(), first.Device())
	if err != nil {
		panic(fmt.Sprintf("dataparallel: gather: %v", err))
	}

	offset := 0
	for _, out := range outputs {
		n := copy(result.Data()[offset:], out.Data()[:out.ByteSize()])
		offset += n
	}
	return result
}
