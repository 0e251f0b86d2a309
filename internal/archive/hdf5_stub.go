//go:build nohdf5

package archive

import "errors"

// ErrHDF5Unavailable is returned by binaries built with the nohdf5 tag
var ErrHDF5Unavailable = errors.New("hdf5 support not compiled in, rebuild without -tags nohdf5 or use --format parquet")

func writeHDF5(path string, b *Batch) error {
	return ErrHDF5Unavailable
}
