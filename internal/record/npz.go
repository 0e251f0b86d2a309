package record

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/sbinet/npyio/npy"
	"github.com/sbinet/npyio/npz"
)

// DefaultArrayKey is the name numpy gives the first positional array in savez
const DefaultArrayKey = "arr_0"

type numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

type array[T numeric] struct {
	shape []int
	data  []T
}

func readUint8(path string) (*array[uint8], error) {
	return readArray[uint8](path)
}

func readFloat32(path string) (*array[float32], error) {
	return readArray[float32](path)
}

// readArray opens an .npz archive and casts its first array to T
func readArray[T numeric](path string) (*array[T], error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open npz: %w", err)
	}
	defer r.Close()

	key, err := arrayKey(r.Keys())
	if err != nil {
		return nil, err
	}

	hdr := r.Header(key)
	if hdr == nil {
		return nil, fmt.Errorf("missing header for array %q", key)
	}
	if hdr.Descr.Fortran {
		return nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}

	data, err := readCast[T](r, key, dtypeCode(hdr.Descr.Type))
	if err != nil {
		return nil, err
	}

	shape := append([]int(nil), hdr.Descr.Shape...)
	if want := product(shape); len(data) != want {
		return nil, fmt.Errorf("array %q has %d elements, shape %v needs %d", key, len(data), shape, want)
	}
	return &array[T]{shape: shape, data: data}, nil
}

// arrayKey picks arr_0 when present and the first stored array otherwise
func arrayKey(keys []string) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("npz archive contains no arrays")
	}
	for _, k := range keys {
		if strings.TrimSuffix(k, ".npy") == DefaultArrayKey {
			return k, nil
		}
	}
	return keys[0], nil
}

// dtypeCode drops the byte-order marker from a numpy descr such as "<f4"
func dtypeCode(descr string) string {
	if descr != "" && strings.ContainsRune("<>|=", rune(descr[0])) {
		return descr[1:]
	}
	return descr
}

func readCast[T numeric](r *npz.Reader, key, code string) ([]T, error) {
	switch code {
	case "u1":
		return readAs[uint8, T](r, key)
	case "u2":
		return readAs[uint16, T](r, key)
	case "u4":
		return readAs[uint32, T](r, key)
	case "u8":
		return readAs[uint64, T](r, key)
	case "i1":
		return readAs[int8, T](r, key)
	case "i2":
		return readAs[int16, T](r, key)
	case "i4":
		return readAs[int32, T](r, key)
	case "i8":
		return readAs[int64, T](r, key)
	case "f4":
		return readAs[float32, T](r, key)
	case "f8":
		return readAs[float64, T](r, key)
	default:
		return nil, fmt.Errorf("unsupported dtype %q", code)
	}
}

func readAs[S, D numeric](r *npz.Reader, key string) ([]D, error) {
	var src []S
	if err := r.Read(key, &src); err != nil {
		return nil, fmt.Errorf("failed to read array %q: %w", key, err)
	}
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = D(v)
	}
	return out, nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// WriteNPZ stores an encoded .npy payload as the single array of a new
// .npz archive, the same layout numpy.savez produces for one array.
func WriteNPZ(path string, npyData io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create npz file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   DefaultArrayKey + ".npy",
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("failed to create npz entry: %w", err)
	}
	if _, err := io.Copy(w, npyData); err != nil {
		return fmt.Errorf("failed to write npz entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize npz: %w", err)
	}
	return f.Close()
}

// ConvertNPYToNPZ wraps a bare .npy file into an .npz next to it and
// returns the new path.
func ConvertNPYToNPZ(path string) (string, error) {
	if err := checkExists(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open npy file: %w", err)
	}
	defer f.Close()

	// validate magic and header before copying the payload verbatim
	if _, err := npy.NewReader(f); err != nil {
		return "", &DecodeError{Path: path, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind npy file: %w", err)
	}

	out := strings.ReplaceAll(path, ".npy", "") + ".npz"
	if err := WriteNPZ(out, f); err != nil {
		return "", err
	}
	return out, nil
}
