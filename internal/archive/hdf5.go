//go:build !nohdf5

package archive

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

const (
	imagesDataset = "images"
	depthsDataset = "depths"
)

// writeHDF5 stores images as uint8 N×3×H×W and depths as float32 N×H×W
func writeHDF5(path string, b *Batch) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create hdf5 file: %w", err)
	}
	defer f.Close()

	n, h, w := uint(b.Len()), uint(b.Height), uint(b.Width)

	images := make([]uint8, 0, int(n*3*h*w))
	for _, img := range b.Images {
		images = append(images, img...)
	}
	if err := writeDataset(f, imagesDataset, hdf5.T_NATIVE_UINT8, []uint{n, 3, h, w}, &images); err != nil {
		return err
	}

	depths := make([]float32, 0, int(n*h*w))
	for _, d := range b.Depths {
		depths = append(depths, d...)
	}
	return writeDataset(f, depthsDataset, hdf5.T_NATIVE_FLOAT, []uint{n, h, w}, &depths)
}

func writeDataset(f *hdf5.File, name string, dtype *hdf5.Datatype, dims []uint, data any) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("failed to create dataspace for %s: %w", name, err)
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", name, err)
	}
	defer dset.Close()

	if err := dset.Write(data); err != nil {
		return fmt.Errorf("failed to write dataset %s: %w", name, err)
	}
	return nil
}
