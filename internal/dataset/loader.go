// Package dataset loads sorted integer datasets from binary blobs and
// tracks registered datasets in a local catalog.
//
// The blob format is little-endian: an 8-byte unsigned element count
// followed by count packed uint64 values, no padding or metadata. Blobs
// with a .sz suffix are snappy-compressed with the same payload inside.
package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"

	verrors "github.com/veridex/veridex/internal/errors"
)

// CompressedSuffix marks snappy-compressed dataset blobs.
const CompressedSuffix = ".sz"

// decodeChunk is the number of elements decoded per read.
const decodeChunk = 1 << 17

// Load reads a dataset blob from the local filesystem. The declared
// element count is trusted, as with any benchmark dataset the caller
// controls; a blob shorter than its declaration is still reported as an
// error rather than silently truncated.
func Load(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, verrors.NewDatasetError(verrors.CodeUnreadable,
			fmt.Sprintf("unable to open %s", path), err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(path, CompressedSuffix) {
		r = snappy.NewReader(r)
	}

	data, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

// Decode reads the binary dataset format from r.
func Decode(r io.Reader) ([]uint64, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, verrors.NewDatasetError(verrors.CodeTruncated, "missing element count header", err)
	}
	count := binary.LittleEndian.Uint64(header[:])

	data := make([]uint64, 0, count)
	buf := make([]byte, decodeChunk*8)
	remaining := count

	for remaining > 0 {
		n := uint64(decodeChunk)
		if remaining < n {
			n = remaining
		}
		chunk := buf[:n*8]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, verrors.NewDatasetError(verrors.CodeTruncated,
				fmt.Sprintf("blob ends %d elements short of declared count %d", remaining, count), err)
		}
		for i := uint64(0); i < n; i++ {
			data = append(data, binary.LittleEndian.Uint64(chunk[i*8:]))
		}
		remaining -= n
	}

	return data, nil
}

// Encode writes data to w in the binary dataset format. Used by the
// register command and by tests to synthesize blobs.
func Encode(w io.Writer, data []uint64) error {
	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing element count: %w", err)
	}

	buf := make([]byte, decodeChunk*8)
	for off := 0; off < len(data); off += decodeChunk {
		end := off + decodeChunk
		if end > len(data) {
			end = len(data)
		}
		chunk := buf[:(end-off)*8]
		for i, v := range data[off:end] {
			binary.LittleEndian.PutUint64(chunk[i*8:], v)
		}
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("writing elements: %w", err)
		}
	}
	return nil
}

// WriteFile encodes data to path, compressing when path carries the
// compressed suffix.
func WriteFile(path string, data []uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)
	var w io.Writer = bw
	var sw *snappy.Writer
	if strings.HasSuffix(path, CompressedSuffix) {
		sw = snappy.NewBufferedWriter(bw)
		w = sw
	}

	if err := Encode(w, data); err != nil {
		return err
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			return fmt.Errorf("flushing snappy stream: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadHeader returns the declared element count of a blob without
// loading it.
func ReadHeader(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, verrors.NewDatasetError(verrors.CodeUnreadable,
			fmt.Sprintf("unable to open %s", path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		r = snappy.NewReader(f)
	}

	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, verrors.NewDatasetError(verrors.CodeTruncated, "missing element count header", err)
	}
	return binary.LittleEndian.Uint64(header[:]), nil
}
