package serialization_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcnn-ml/abcnn/internal/backend/cpu"
	"github.com/abcnn-ml/abcnn/internal/serialization"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

func testState(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	backend := cpu.New()

	weight, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{-1, 0.5}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	indices, err := tensor.FromSlice([]int64{7, 8, 9}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	return map[string]*tensor.RawTensor{
		"fc.weight":  weight.Raw(),
		"fc.bias":    bias.Raw(),
		"vocab.best": indices.Raw(),
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	state := testState(t)

	var buf bytes.Buffer
	meta := map[string]string{"config": "test"}
	require.NoError(t, serialization.Write(&buf, state, "abcnn", meta))

	loaded, header, err := serialization.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, serialization.FormatVersion, header.FormatVersion)
	assert.Equal(t, "abcnn", header.ModelType)
	assert.Equal(t, "test", header.Metadata["config"])
	assert.False(t, header.CreatedAt.IsZero())

	require.Len(t, loaded, len(state))
	for name, want := range state {
		got, ok := loaded[name]
		require.True(t, ok, name)
		assert.Equal(t, want.DType(), got.DType(), name)
		assert.True(t, want.Shape().Equal(got.Shape()), name)
		assert.Equal(t, want.Data(), got.Data(), name)
	}
}

func TestWrite_Deterministic(t *testing.T) {
	state := testState(t)

	var a, b bytes.Buffer
	require.NoError(t, serialization.Write(&a, state, "abcnn", nil))
	require.NoError(t, serialization.Write(&b, state, "abcnn", nil))

	// Tensors serialize in name order, so only the timestamp may differ
	// between writes of the same state.
	_, ha, err := serialization.Read(bytes.NewReader(a.Bytes()))
	require.NoError(t, err)
	_, hb, err := serialization.Read(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ha.Tensors, hb.Tensors)
}

func TestRead_TensorOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, testState(t), "abcnn", nil))

	_, header, err := serialization.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	names := make([]string, 0, len(header.Tensors))
	for _, m := range header.Tensors {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"fc.bias", "fc.weight", "vocab.best"}, names)

	// Offsets are contiguous over the payload.
	var pos int64
	for _, m := range header.Tensors {
		assert.Equal(t, pos, m.Offset, m.Name)
		pos += m.Size
	}
}

func TestRead_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, testState(t), "abcnn", nil))

	// Flip a bit in the last payload byte.
	data := buf.Bytes()
	data[len(data)-1] ^= 0x01

	_, _, err := serialization.Read(bytes.NewReader(data))
	require.ErrorIs(t, err, serialization.ErrChecksumMismatch)
}

func TestRead_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, testState(t), "abcnn", nil))

	data := buf.Bytes()
	copy(data[0:4], "NOPE")

	_, _, err := serialization.Read(bytes.NewReader(data))
	require.ErrorIs(t, err, serialization.ErrInvalidMagic)
}

func TestRead_BadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, testState(t), "abcnn", nil))

	data := buf.Bytes()
	data[4] = 0xFF

	_, _, err := serialization.Read(bytes.NewReader(data))
	require.ErrorIs(t, err, serialization.ErrUnsupportedVersion)
}

func TestRead_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, testState(t), "abcnn", nil))

	data := buf.Bytes()
	_, _, err := serialization.Read(bytes.NewReader(data[:len(data)-8]))
	require.Error(t, err)
}

func TestSaveLoad_File(t *testing.T) {
	state := testState(t)
	path := filepath.Join(t.TempDir(), "model.abnn")

	require.NoError(t, serialization.Save(path, state, "abcnn", nil))

	loaded, header, err := serialization.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abcnn", header.ModelType)
	assert.Len(t, loaded, len(state))

	onlyHeader, err := serialization.ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, header.ModelType, onlyHeader.ModelType)
	assert.Len(t, onlyHeader.Tensors, len(state))
}

func TestWrite_EmptyState(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, serialization.Write(&buf, map[string]*tensor.RawTensor{}, "abcnn", nil))

	loaded, _, err := serialization.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
