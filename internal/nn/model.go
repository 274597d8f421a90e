package nn

import (
	"fmt"
	"strconv"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Model owns the embedding lookup, the ordered layers, and the
// classification head.
//
// Forward contract: a batch of sentence pairs as token indices
// [batch, 2, maxLength] (int64, index 0 = padding) produces one
// sigmoid-activated duplicate-likelihood score per pair, shape [batch].
//
// Each layer's next-layer sequences feed the following layer; the
// pooled vectors of every layer (plus the pooled raw embeddings) are
// concatenated into the final representation when useAllLayerOutputs is
// set, otherwise only the last layer's contribution is used.
type Model[B tensor.Backend] struct {
	embedding          *Embedding[B]
	layers             []*Layer[B]
	useAllLayerOutputs bool
	fc                 *Linear[B]
	allAP              *AllAP[B]
	maxLength          int
	backend            B
}

// NewModel assembles a model. finalSize must equal twice the sum of the
// pooled sizes entering the final representation (embedding size plus
// every layer when useAllLayerOutputs, else the last contribution
// only); the classification head is sized by it.
func NewModel[B tensor.Backend](embedding *Embedding[B], layers []*Layer[B], useAllLayerOutputs bool, finalSize, maxLength int, backend B) (*Model[B], error) {
	if embedding == nil {
		return nil, fmt.Errorf("model: embedding is required")
	}
	if maxLength <= 0 {
		return nil, fmt.Errorf("model: invalid max length %d", maxLength)
	}

	expected := 2 * embedding.Dim()
	if len(layers) > 0 {
		last := layers[len(layers)-1].OutputSize()
		expected = 2 * last
	}
	if useAllLayerOutputs {
		expected = 2 * embedding.Dim()
		for _, l := range layers {
			expected += 2 * l.OutputSize()
		}
	}
	if finalSize != expected {
		return nil, fmt.Errorf("model: final size %d does not match layer configuration (expected %d)", finalSize, expected)
	}

	return &Model[B]{
		embedding:          embedding,
		layers:             layers,
		useAllLayerOutputs: useAllLayerOutputs,
		fc:                 NewLinear(finalSize, 1, backend),
		allAP:              NewAllAP[B](),
		maxLength:          maxLength,
		backend:            backend,
	}, nil
}

// Forward scores a batch of sentence pairs.
//
// Input: [batch, 2, maxLength] int64 token indices.
// Output: [batch] float32 scores in (0, 1).
func (m *Model[B]) Forward(pairs *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	shape := pairs.Shape()
	if len(shape) != 3 || shape[1] != 2 {
		panic(fmt.Sprintf("model: expected input shape [batch, 2, length], got %v", shape))
	}
	if shape[2] != m.maxLength {
		panic(fmt.Sprintf("model: sequence length %d does not match max length %d", shape[2], m.maxLength))
	}

	batch := shape[0]
	idxA, idxB := m.splitPair(pairs)
	maskA := m.padMask(idxA)
	maskB := m.padMask(idxB)

	seqA := m.embedding.Forward(idxA) // [batch, L, dim]
	seqB := m.embedding.Forward(idxB)

	pooled := []*tensor.Tensor[float32, B]{
		m.allAP.Forward(seqA, maskA),
		m.allAP.Forward(seqB, maskB),
	}
	for _, layer := range m.layers {
		out := layer.Forward(seqA, seqB, maskA, maskB)
		seqA, seqB = out.NextA, out.NextB
		pooled = append(pooled, out.PooledA, out.PooledB)
	}

	var features *tensor.Tensor[float32, B]
	if m.useAllLayerOutputs {
		features = tensor.Cat(pooled, 1)
	} else {
		features = tensor.Cat(pooled[len(pooled)-2:], 1)
	}

	return m.fc.Forward(features).Sigmoid().Reshape(batch)
}

// splitPair separates [batch, 2, L] index pairs into two [batch, L]
// index tensors.
func (m *Model[B]) splitPair(pairs *tensor.Tensor[int64, B]) (a, b *tensor.Tensor[int64, B]) {
	batch, length := pairs.Shape()[0], pairs.Shape()[2]
	src := pairs.Data()

	aData := make([]int64, batch*length)
	bData := make([]int64, batch*length)
	for i := 0; i < batch; i++ {
		copy(aData[i*length:(i+1)*length], src[i*2*length:i*2*length+length])
		copy(bData[i*length:(i+1)*length], src[i*2*length+length:(i+1)*2*length])
	}

	a, err := tensor.FromSlice(aData, tensor.Shape{batch, length}, m.backend)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	b, err = tensor.FromSlice(bData, tensor.Shape{batch, length}, m.backend)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return a, b
}

// padMask derives the non-padding mask (1 for real tokens, 0 for index
// 0) from a [batch, L] index tensor.
func (m *Model[B]) padMask(indices *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	src := indices.Data()
	mask := make([]float32, len(src))
	for i, ix := range src {
		if ix != 0 {
			mask[i] = 1
		}
	}
	t, err := tensor.FromSlice(mask, indices.Shape().Clone(), m.backend)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return t
}

// Train puts the model in training mode (dropout active).
func (m *Model[B]) Train() {
	m.setTraining(true)
}

// Eval puts the model in evaluation mode.
func (m *Model[B]) Eval() {
	m.setTraining(false)
}

func (m *Model[B]) setTraining(training bool) {
	for _, layer := range m.layers {
		layer.SetTraining(training)
	}
}

// Layers returns the model's layers.
func (m *Model[B]) Layers() []*Layer[B] {
	return m.layers
}

// Embedding returns the embedding lookup.
func (m *Model[B]) Embedding() *Embedding[B] {
	return m.embedding
}

// MaxLength returns the configured sequence length.
func (m *Model[B]) MaxLength() int {
	return m.maxLength
}

// FinalSize returns the classification head's input dimension.
func (m *Model[B]) FinalSize() int {
	return m.fc.InFeatures()
}

// Parameters returns every trainable parameter of the model.
func (m *Model[B]) Parameters() []*Parameter[B] {
	params := m.embedding.Parameters()
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return append(params, m.fc.Parameters()...)
}

// StateDict returns all model weights under hierarchical dotted names:
// "embedding.weight", "layers.<i>.blocks.<j>....", "fc.weight",
// "fc.bias".
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	addPrefixed(state, "embedding.", m.embedding.StateDict())
	for i, layer := range m.layers {
		addPrefixed(state, "layers."+strconv.Itoa(i)+".", layer.StateDict())
	}
	addPrefixed(state, "fc.", m.fc.StateDict())
	return state
}

// LoadStateDict loads all model weights.
func (m *Model[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := m.embedding.LoadStateDict(stripPrefixed(state, "embedding.")); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	for i, layer := range m.layers {
		prefix := "layers." + strconv.Itoa(i) + "."
		if err := layer.LoadStateDict(stripPrefixed(state, prefix)); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	if err := m.fc.LoadStateDict(stripPrefixed(state, "fc.")); err != nil {
		return fmt.Errorf("fc: %w", err)
	}
	return nil
}
