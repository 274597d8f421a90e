package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Checkpoint corruption errors.
var (
	ErrInvalidMagic       = errors.New("not a checkpoint file (bad magic)")
	ErrUnsupportedVersion = errors.New("unsupported checkpoint format version")
	ErrChecksumMismatch   = errors.New("checkpoint payload checksum mismatch")
)

// Load reads a checkpoint file back into a state dictionary.
func Load(path string) (map[string]*tensor.RawTensor, *Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	defer file.Close()
	return Read(file)
}

// ReadHeader reads only the tensor index of a checkpoint file.
func ReadHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	defer file.Close()
	header, _, err := readHeader(file)
	return header, err
}

// Read deserializes a .abnn stream into a state dictionary, verifying
// the payload checksum.
func Read(r io.Reader) (map[string]*tensor.RawTensor, *Header, error) {
	header, fixed, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}

	headerSize := binary.LittleEndian.Uint64(fixed[8:16])
	payloadSize := binary.LittleEndian.Uint64(fixed[16:24])
	var want [checksumSize]byte
	copy(want[:], fixed[checksumOffset:checksumOffset+checksumSize])

	if pad := alignPadding(int64(FixedHeaderSize) + int64(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, nil, fmt.Errorf("read padding: %w", err)
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, fmt.Errorf("read payload: %w", err)
	}
	if got := sha256.Sum256(payload); !bytes.Equal(got[:], want[:]) {
		return nil, nil, ErrChecksumMismatch
	}

	state := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %s: unsupported dtype %q", meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: invalid shape: %w", meta.Name, err)
		}
		end := meta.Offset + meta.Size
		if meta.Offset < 0 || end > int64(len(payload)) {
			return nil, nil, fmt.Errorf("tensor %s: data range [%d, %d) outside payload", meta.Name, meta.Offset, end)
		}
		raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("tensor %s: size %d does not match shape %v", meta.Name, meta.Size, shape)
		}
		copy(raw.Data(), payload[meta.Offset:end])
		state[meta.Name] = raw
	}
	return state, header, nil
}

// readHeader consumes and validates the fixed header plus the JSON
// tensor index, returning both.
func readHeader(r io.Reader) (*Header, []byte, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, nil, fmt.Errorf("read fixed header: %w", err)
	}
	if string(fixed[0:4]) != Magic {
		return nil, nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[8:16])
	if headerSize > maxHeaderSize {
		return nil, nil, fmt.Errorf("header size %d exceeds limit", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var header Header
	if err := sonic.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("parse header: %w", err)
	}
	return &header, fixed, nil
}
