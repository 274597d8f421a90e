// Package serialization implements the .abnn checkpoint format: a
// fixed binary header, a JSON tensor index, and an aligned raw tensor
// payload guarded by a SHA-256 checksum.
//
// Layout:
//
//	0x00-0x03  magic "ABNN"
//	0x04-0x07  format version (uint32 LE)
//	0x08-0x0F  header JSON size (uint64 LE)
//	0x10-0x17  payload size (uint64 LE)
//	0x18-0x37  SHA-256 of the payload
//	0x38-0x3F  reserved
//	0x40-      header JSON, zero padding to 64-byte boundary, payload
//
// Tensors are laid out in the payload in ascending name order so a
// state dict always serializes to the same bytes.
package serialization

import (
	"crypto/sha256"
	"time"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Format constants.
const (
	Magic           = "ABNN"
	FormatVersion   = 1
	FixedHeaderSize = 64
	PayloadAlign    = 64

	checksumOffset = 0x18
	checksumSize   = sha256.Size

	// Header JSON larger than this indicates a corrupt or hostile file.
	maxHeaderSize = 16 * 1024 * 1024
)

// Data type names used in the header JSON.
const (
	DTypeFloat32 = "float32"
	DTypeInt64   = "int64"
)

// Header is the JSON tensor index of a checkpoint.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the payload.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Int64:
		return DTypeInt64
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}

func alignPadding(pos int64) int64 {
	return (PayloadAlign - pos%PayloadAlign) % PayloadAlign
}
