package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Pair is one sample of a PairListDataset: an image, its annotation, and
// the sequence both belong to.
type Pair struct {
	Image      *tensor.RawTensor
	Annotation *tensor.RawTensor
	Sequence   string
}

// PairListDataset reads a whitespace-separated text file listing image and
// annotation paths, one pair per line:
//
//	seq-a/frame001.jpg seq-a/frame001.png
//	seq-a/frame002.jpg seq-a/frame002.png
//	seq-b/frame001.jpg seq-b/frame001.png
//
// Paths are resolved against the image and annotation root directories.
// The sequence of a sample is the name of the directory its image lives
// in, so samples group naturally by the folder convention video datasets
// use.
type PairListDataset struct {
	imageDir      string
	annotationDir string
	entries       []pairEntry

	transform           Transform
	annotationTransform Transform

	sequences      []string
	sequenceCounts map[string]int
}

type pairEntry struct {
	imagePath      string
	annotationPath string
	sequence       string
}

// PairListOption configures a PairListDataset.
type PairListOption func(*PairListDataset)

// WithTransform applies a transform to every image before conversion.
func WithTransform(t Transform) PairListOption {
	return func(d *PairListDataset) { d.transform = t }
}

// WithAnnotationTransform applies a transform to every annotation image.
func WithAnnotationTransform(t Transform) PairListOption {
	return func(d *PairListDataset) { d.annotationTransform = t }
}

// NewPairListDataset parses the list file and indexes its samples.
// Images are decoded lazily, one sample at a time.
func NewPairListDataset(listPath, imageDir, annotationDir string, opts ...PairListOption) (*PairListDataset, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer file.Close()

	d := &PairListDataset{
		imageDir:       imageDir,
		annotationDir:  annotationDir,
		sequenceCounts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected image and annotation path, got %d fields", listPath, line, len(fields))
		}

		sequence := filepath.Base(filepath.Dir(fields[0]))
		d.entries = append(d.entries, pairEntry{
			imagePath:      filepath.Join(imageDir, fields[0]),
			annotationPath: filepath.Join(annotationDir, fields[1]),
			sequence:       sequence,
		})
		if d.sequenceCounts[sequence] == 0 {
			d.sequences = append(d.sequences, sequence)
		}
		d.sequenceCounts[sequence]++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}

	return d, nil
}

// Len reports the number of samples.
func (d *PairListDataset) Len() int {
	return len(d.entries)
}

// At decodes and returns the sample at index idx.
func (d *PairListDataset) At(idx int) (*Pair, error) {
	if idx < 0 || idx >= len(d.entries) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.entries))
	}
	entry := d.entries[idx]

	img, err := loadImage(entry.imagePath, d.transform)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", entry.imagePath, err)
	}
	annotation, err := loadImage(entry.annotationPath, d.annotationTransform)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotation %s: %w", entry.annotationPath, err)
	}

	return &Pair{Image: img, Annotation: annotation, Sequence: entry.sequence}, nil
}

// Sequences lists the sequence names in first-seen order.
func (d *PairListDataset) Sequences() []string {
	return d.sequences
}

// SequenceCounts reports how many samples each sequence contributes.
func (d *PairListDataset) SequenceCounts() map[string]int {
	return d.sequenceCounts
}
