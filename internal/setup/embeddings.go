package setup

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/abcnn-ml/abcnn/internal/logger"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// BuildEmbeddingMatrix constructs the [vocab, size] lookup table for a
// word-to-index vocabulary and a set of already loaded pretrained
// vectors.
//
// Row 0 is the zero vector reserved for padding; index 0 must not be
// assigned to a word. Every other row starts as a uniform draw from
// [-0.01, 0.01) seeded by the word itself, so out-of-vocabulary rows
// are deterministic across rebuilds regardless of map iteration order.
// Words present in vectors have their row overwritten by the
// pretrained values.
func BuildEmbeddingMatrix[B tensor.Backend](vocabulary map[string]int, vectors map[string][]float32, size int, backend B) (*tensor.Tensor[float32, B], error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedding size must be positive, got %d", size)
	}
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	vocab := 1
	for word, index := range vocabulary {
		if index <= 0 {
			return nil, fmt.Errorf("word %q has index %d: index 0 is reserved for padding", word, index)
		}
		if index >= vocab {
			vocab = index + 1
		}
	}

	data := make([]float32, vocab*size)
	pretrained := 0
	for word, index := range vocabulary {
		row := data[index*size : (index+1)*size]
		if vec, ok := vectors[word]; ok {
			if len(vec) != size {
				return nil, fmt.Errorf("pretrained vector for %q has %d dimensions, want %d", word, len(vec), size)
			}
			copy(row, vec)
			pretrained++
			continue
		}
		rng := rand.New(rand.NewSource(wordSeed(word)))
		for i := range row {
			row[i] = float32(rng.Float64()*0.02 - 0.01)
		}
	}

	logger.L.Info().
		Int("vocab", vocab).
		Int("size", size).
		Int("pretrained", pretrained).
		Int("random", len(vocabulary)-pretrained).
		Msg("embedding matrix built")

	return tensor.FromSlice(data, tensor.Shape{vocab, size}, backend)
}

func wordSeed(word string) int64 {
	h := fnv.New64a()
	h.Write([]byte(word))
	return int64(h.Sum64())
}
