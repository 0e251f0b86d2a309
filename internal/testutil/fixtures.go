// Package testutil writes small Food3D datasets for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// EncodeNPY builds a version 1.0 .npy payload
func EncodeNPY(descr string, shape []int, data []byte) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, tuple)
	// magic(6) + version(2) + len(2) + header + '\n' must be 64-byte aligned
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

// WriteNPZ stores payload as arr_0.npy inside a new archive at path
func WriteNPZ(t testing.TB, path string, payload []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("arr_0.npy")
	if err != nil {
		t.Fatalf("Failed to create npz entry: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Failed to write npz entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close npz: %v", err)
	}
}

// WriteBGRA writes an HxWx4 uint8 record; px returns B, G, R, A for (y, x)
func WriteBGRA(t testing.TB, path string, h, w int, px func(y, x int) [4]uint8) {
	t.Helper()

	data := make([]byte, 0, h*w*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := px(y, x)
			data = append(data, p[:]...)
		}
	}
	WriteNPZ(t, path, EncodeNPY("|u1", []int{h, w, 4}, data))
}

// WriteDepth writes an HxW float32 record in millimetres
func WriteDepth(t testing.TB, path string, h, w int, values []float32) {
	t.Helper()

	if len(values) != h*w {
		t.Fatalf("depth fixture needs %d values, got %d", h*w, len(values))
	}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	WriteNPZ(t, path, EncodeNPY("<f4", []int{h, w}, data))
}

// WriteCapture writes <root>/<class>/<id>_bgr.npz and <id>_depth.npz with
// deterministic content and returns both paths.
func WriteCapture(t testing.TB, root, class, id string, h, w int) (string, string) {
	t.Helper()

	dir := filepath.Join(root, class)
	rgbPath := filepath.Join(dir, id+"_bgr.npz")
	depthPath := filepath.Join(dir, id+"_depth.npz")

	WriteBGRA(t, rgbPath, h, w, func(y, x int) [4]uint8 {
		return [4]uint8{uint8(x), uint8(y), uint8(x + y), 255}
	})
	values := make([]float32, h*w)
	for i := range values {
		values[i] = float32(1000 + i)
	}
	WriteDepth(t, depthPath, h, w, values)
	return rgbPath, depthPath
}

// MkClass creates an empty class directory
func MkClass(t testing.TB, root, class string) string {
	t.Helper()

	dir := filepath.Join(root, class)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create class directory: %v", err)
	}
	return dir
}
