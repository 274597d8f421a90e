package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Save writes a state dictionary to a checkpoint file.
func Save(path string, state map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint %s: %w", path, err)
	}
	if err := Write(file, state, modelType, metadata); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Write serializes a state dictionary to w in .abnn format.
func Write(w io.Writer, state map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      metadata,
	}

	var payloadSize int64
	for _, name := range names {
		raw := state[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  append([]int(nil), raw.Shape()...),
			Offset: payloadSize,
			Size:   size,
		})
		payloadSize += size
	}

	digest := sha256.New()
	for _, name := range names {
		digest.Write(state[name].Data())
	}

	headerJSON, err := sonic.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], Magic)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[8:16], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(payloadSize))
	copy(fixed[checksumOffset:checksumOffset+checksumSize], digest.Sum(nil))

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if pad := alignPadding(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}

	for _, name := range names {
		if _, err := w.Write(state[name].Data()); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}
	return nil
}
