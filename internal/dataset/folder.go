package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// FolderSample is one (path, label) entry of a FolderDataset.
type FolderSample struct {
	Path  string
	Label int
}

// FolderDataset indexes a directory-per-class image tree:
//
//	root/
//	  cats/img001.jpg
//	  cats/img002.jpg
//	  dogs/img001.jpg
//
// Only the chosen class folders are indexed; other directories under the
// root are ignored. Class indices follow the order classes were chosen
// in, so the label mapping is stable across runs and machines.
type FolderDataset struct {
	root         string
	classes      []string
	classToIndex map[string]int
	samples      []FolderSample

	transform  Transform
	extensions []string
}

// FolderOption configures a FolderDataset.
type FolderOption func(*FolderDataset)

// WithFolderTransform applies a transform to every image before conversion.
func WithFolderTransform(t Transform) FolderOption {
	return func(d *FolderDataset) { d.transform = t }
}

// WithExtensions replaces the default set of accepted file extensions.
// Extensions must be lower case and include the leading dot.
func WithExtensions(extensions ...string) FolderOption {
	return func(d *FolderDataset) { d.extensions = extensions }
}

// NewFolderDataset indexes the chosen class folders under root.
// Returns an error wrapping ErrNoClasses when none of the chosen classes
// exist as directories.
func NewFolderDataset(root string, chosenClasses []string, opts ...FolderOption) (*FolderDataset, error) {
	d := &FolderDataset{
		root:       root,
		extensions: defaultExtensions,
	}
	for _, opt := range opts {
		opt(d)
	}

	classes, classToIndex, err := findClasses(root, chosenClasses)
	if err != nil {
		return nil, err
	}
	d.classes = classes
	d.classToIndex = classToIndex

	for _, class := range classes {
		if err := d.indexClass(class); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// findClasses intersects the chosen class names with the directories that
// actually exist under root, preserving the chosen order.
func findClasses(root string, chosenClasses []string) ([]string, map[string]int, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset root: %w", err)
	}
	present := make(map[string]bool)
	for _, entry := range dirEntries {
		if entry.IsDir() {
			present[entry.Name()] = true
		}
	}

	var classes []string
	for _, chosen := range chosenClasses {
		if present[chosen] {
			classes = append(classes, chosen)
		}
	}
	if len(classes) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoClasses, root)
	}

	classToIndex := make(map[string]int, len(classes))
	for i, class := range classes {
		classToIndex[class] = i
	}
	return classes, classToIndex, nil
}

// indexClass walks one class directory and records its image files in
// sorted path order.
func (d *FolderDataset) indexClass(class string) error {
	label := d.classToIndex[class]
	classDir := filepath.Join(d.root, class)

	var paths []string
	err := filepath.WalkDir(classDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && hasAllowedExtension(path, d.extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index class %s: %w", class, err)
	}

	sort.Strings(paths)
	for _, path := range paths {
		d.samples = append(d.samples, FolderSample{Path: path, Label: label})
	}
	return nil
}

// Len reports the number of samples.
func (d *FolderDataset) Len() int {
	return len(d.samples)
}

// At decodes the sample at index idx and returns its tensor and label.
func (d *FolderDataset) At(idx int) (*tensor.RawTensor, int, error) {
	if idx < 0 || idx >= len(d.samples) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.samples))
	}
	sample := d.samples[idx]

	img, err := loadImage(sample.Path, d.transform)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load %s: %w", sample.Path, err)
	}
	return img, sample.Label, nil
}

// Classes lists the indexed class names in label order.
func (d *FolderDataset) Classes() []string {
	return d.classes
}

// ClassToIndex maps class names to labels.
func (d *FolderDataset) ClassToIndex() map[string]int {
	return d.classToIndex
}

// Samples returns the (path, label) index without decoding any images.
func (d *FolderDataset) Samples() []FolderSample {
	return d.samples
}
