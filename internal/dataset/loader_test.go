package dataset

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/veridex/veridex/internal/errors"
)

func TestLoad_RoundTrip(t *testing.T) {
	data := []uint64{1, 3, 3, 7, 9, 1 << 50, 1<<64 - 1}
	path := filepath.Join(t.TempDir(), "tiny_uint64")

	require.NoError(t, WriteFile(path, data))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLoad_SnappyCompressed(t *testing.T) {
	data := make([]uint64, 100_000)
	for i := range data {
		data[i] = uint64(i) * 17
	}
	path := filepath.Join(t.TempDir(), "synthetic_uint64"+CompressedSuffix)

	require.NoError(t, WriteFile(path, data))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	count, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), count)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no_such_dataset"))
	require.Error(t, err)
	assert.Equal(t, verrors.CodeUnreadable, verrors.GetCode(err))
}

func TestDecode_TruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], 10)
	buf.Write(header[:])
	// Only 3 of the declared 10 elements.
	for i := 0; i < 3; i++ {
		var el [8]byte
		binary.LittleEndian.PutUint64(el[:], uint64(i))
		buf.Write(el[:])
	}

	_, err := Decode(&buf)
	require.Error(t, err)
	assert.Equal(t, verrors.CodeTruncated, verrors.GetCode(err))
}

func TestDecode_MissingHeader(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
	assert.Equal(t, verrors.CodeTruncated, verrors.GetCode(err))
}

func TestDecode_EmptyDatasetIsValid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_LittleEndianLayout(t *testing.T) {
	// One element, value 0x0102030405060708, hand-packed.
	raw := []byte{
		1, 0, 0, 0, 0, 0, 0, 0,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	got, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0x0102030405060708), got[0])
}
