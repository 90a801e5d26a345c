// Copyright 2026 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides image dataset loaders that yield CPU tensors.
//
// Decoded images become Float32 tensors of shape [3, H, W] with values
// scaled to [0, 1].
//
// Example:
//
//	import (
//	    "github.com/disintegration/imaging"
//	    "github.com/kiln-ml/kiln/dataset"
//	)
//
//	ds, err := dataset.NewFolderDataset("data/train", []string{"cats", "dogs"},
//	    dataset.WithFolderTransform(func(img image.Image) image.Image {
//	        return imaging.Resize(img, 32, 32, imaging.Lanczos)
//	    }))
//	img, label, err := ds.At(0)
package dataset

import (
	internaldataset "github.com/kiln-ml/kiln/internal/dataset"
)

// ErrNoClasses reports that none of the requested class folders exist.
var ErrNoClasses = internaldataset.ErrNoClasses

// Transform modifies a decoded image before tensor conversion.
type Transform = internaldataset.Transform

// PairListDataset reads a whitespace-separated text file of image and
// annotation path pairs rooted at two directories. Samples group into
// sequences named after the directory each image lives in.
type PairListDataset = internaldataset.PairListDataset

// Pair is one sample of a PairListDataset.
type Pair = internaldataset.Pair

// PairListOption configures a PairListDataset.
type PairListOption = internaldataset.PairListOption

// NewPairListDataset parses the list file and indexes its samples.
func NewPairListDataset(listPath, imageDir, annotationDir string, opts ...PairListOption) (*PairListDataset, error) {
	return internaldataset.NewPairListDataset(listPath, imageDir, annotationDir, opts...)
}

// WithTransform applies a transform to every image of a PairListDataset.
func WithTransform(t Transform) PairListOption {
	return internaldataset.WithTransform(t)
}

// WithAnnotationTransform applies a transform to every annotation image.
func WithAnnotationTransform(t Transform) PairListOption {
	return internaldataset.WithAnnotationTransform(t)
}

// FolderDataset indexes a directory-per-class image tree restricted to a
// chosen subset of class folders. Class indices follow the chosen order.
type FolderDataset = internaldataset.FolderDataset

// FolderSample is one (path, label) entry of a FolderDataset.
type FolderSample = internaldataset.FolderSample

// FolderOption configures a FolderDataset.
type FolderOption = internaldataset.FolderOption

// NewFolderDataset indexes the chosen class folders under root.
// Returns an error wrapping ErrNoClasses when none of them exist.
func NewFolderDataset(root string, chosenClasses []string, opts ...FolderOption) (*FolderDataset, error) {
	return internaldataset.NewFolderDataset(root, chosenClasses, opts...)
}

// WithFolderTransform applies a transform to every image of a FolderDataset.
func WithFolderTransform(t Transform) FolderOption {
	return internaldataset.WithFolderTransform(t)
}

// WithExtensions replaces the default set of accepted file extensions.
func WithExtensions(extensions ...string) FolderOption {
	return internaldataset.WithExtensions(extensions...)
}
