// Copyright 2026 The ABCNN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public facade over the model components: the four
// convolution-pooling block variants, layers, the model, and the
// configuration-driven builders.
package nn

import (
	"github.com/abcnn-ml/abcnn/internal/inspect"
	"github.com/abcnn-ml/abcnn/internal/nn"
	"github.com/abcnn-ml/abcnn/internal/serialization"
	"github.com/abcnn-ml/abcnn/internal/setup"
	"github.com/abcnn-ml/abcnn/tensor"
)

// Core interfaces and types.

// Module is the common interface of single-input components.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Block is the contract shared by the four convolution-pooling units.
type Block[B tensor.Backend] = nn.Block[B]

// BlockOutput carries a block's next-layer sequences and pooled
// vectors for both sentences of a pair.
type BlockOutput[B tensor.Backend] = nn.BlockOutput[B]

// Components.

// Embedding is the token-index lookup table.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding layer from a prebuilt weight
// matrix [vocab, dim]. Row 0 is the zero padding vector.
func NewEmbedding[B tensor.Backend](weight *tensor.Tensor[float32, B]) (*Embedding[B], error) {
	return nn.NewEmbedding(weight)
}

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-normal weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Convolution is the width-w sliding-window tanh projection.
type Convolution[B tensor.Backend] = nn.Convolution[B]

// NewConvolution creates a convolution. channels is 2 when the input
// carries a stacked attention feature map, 1 otherwise.
func NewConvolution[B tensor.Backend](inputSize, outputSize, width, channels int, shareWeights bool, backend B) *Convolution[B] {
	return nn.NewConvolution(inputSize, outputSize, width, channels, shareWeights, backend)
}

// AllAP is whole-sequence average pooling.
type AllAP[B tensor.Backend] = nn.AllAP[B]

// NewAllAP creates an AllAP pooling component.
func NewAllAP[B tensor.Backend]() *AllAP[B] {
	return nn.NewAllAP[B]()
}

// WidthAP is windowed average pooling of width w.
type WidthAP[B tensor.Backend] = nn.WidthAP[B]

// NewWidthAP creates a WidthAP pooling component.
func NewWidthAP[B tensor.Backend](width int) *WidthAP[B] {
	return nn.NewWidthAP[B](width)
}

// MatchScore selects the attention similarity function.
type MatchScore = nn.MatchScore

// Supported match-score functions.
const (
	Euclidean = nn.Euclidean
	Cosine    = nn.Cosine
)

// ParseMatchScore converts a configuration string to a MatchScore.
func ParseMatchScore(s string) (MatchScore, error) {
	return nn.ParseMatchScore(s)
}

// Blocks, layers, model.

// BCNNBlock is the attention-free convolution-pooling unit.
type BCNNBlock[B tensor.Backend] = nn.BCNNBlock[B]

// ABCNN1Block applies attention before convolution.
type ABCNN1Block[B tensor.Backend] = nn.ABCNN1Block[B]

// ABCNN2Block applies attention to the convolution output as pooling
// weights.
type ABCNN2Block[B tensor.Backend] = nn.ABCNN2Block[B]

// ABCNN3Block combines both attention mechanisms.
type ABCNN3Block[B tensor.Backend] = nn.ABCNN3Block[B]

// Layer runs parallel blocks over the same inputs.
type Layer[B tensor.Backend] = nn.Layer[B]

// NewLayer creates a layer from its blocks.
func NewLayer[B tensor.Backend](blocks []Block[B]) *Layer[B] {
	return nn.NewLayer(blocks)
}

// Model is the full similarity scorer: embedding, stacked layers, and
// the sigmoid classification head.
type Model[B tensor.Backend] = nn.Model[B]

// NewModel assembles a model from its components. Most users should
// use BuildModel with a Config instead.
func NewModel[B tensor.Backend](embedding *Embedding[B], layers []*Layer[B], useAllLayerOutputs bool, finalSize, maxLength int, backend B) (*Model[B], error) {
	return nn.NewModel(embedding, layers, useAllLayerOutputs, finalSize, maxLength, backend)
}

// Configuration-driven construction.

// Config is the declarative model configuration.
type Config = setup.Config

// BlockConfig configures one block inside a layer.
type BlockConfig = setup.BlockConfig

// ParseConfig decodes and validates a JSON configuration.
func ParseConfig(data []byte) (*Config, error) {
	return setup.ParseConfig(data)
}

// LoadConfig reads and parses a configuration file.
func LoadConfig(path string) (*Config, error) {
	return setup.LoadConfig(path)
}

// BuildModel constructs a model from a validated configuration and a
// prebuilt embedding matrix.
//
// Example:
//
//	cfg, _ := nn.LoadConfig("model.json")
//	backend := cpu.New()
//	weights, _ := nn.BuildEmbeddingMatrix(vocab, vectors, cfg.Embeddings.Size, backend)
//	model, err := nn.BuildModel(cfg, weights, backend)
func BuildModel[B tensor.Backend](cfg *Config, embeddingWeight *tensor.Tensor[float32, B], backend B) (*Model[B], error) {
	return setup.Model(cfg, embeddingWeight, backend)
}

// BuildBlock constructs one block from its configuration.
func BuildBlock[B tensor.Backend](cfg BlockConfig, maxLength int, backend B) (Block[B], error) {
	return setup.Block(cfg, maxLength, backend)
}

// BuildEmbeddingMatrix constructs the [vocab, size] lookup table from
// a word-to-index vocabulary and already loaded pretrained vectors.
func BuildEmbeddingMatrix[B tensor.Backend](vocabulary map[string]int, vectors map[string][]float32, size int, backend B) (*tensor.Tensor[float32, B], error) {
	return setup.BuildEmbeddingMatrix(vocabulary, vectors, size, backend)
}

// Checkpoints.

// SaveModel writes a model's weights to a checkpoint file.
func SaveModel[B tensor.Backend](path string, model *Model[B], metadata map[string]string) error {
	return serialization.Save(path, model.StateDict(), "abcnn", metadata)
}

// LoadModel reads a checkpoint file into an already constructed model.
// The model's configuration must match the checkpoint's tensor shapes.
func LoadModel[B tensor.Backend](path string, model *Model[B]) error {
	state, _, err := serialization.Load(path)
	if err != nil {
		return err
	}
	return model.LoadStateDict(state)
}

// Visualization exports.

// RebuildBlock constructs a fresh block from a saved model state,
// restricted to the tensors under prefix (see BlockPrefix).
func RebuildBlock[B tensor.Backend](state map[string]*tensor.RawTensor, prefix string, cfg BlockConfig, maxLength int, backend B) (Block[B], error) {
	return inspect.RebuildBlock(state, prefix, cfg, maxLength, backend)
}

// BlockPrefix returns the state-dict prefix of block j inside layer i.
func BlockPrefix(layer, block int) string {
	return inspect.BlockPrefix(layer, block)
}

// AttentionMatrix recomputes the raw attention matrix of an
// attention-bearing block for the given input sequences.
func AttentionMatrix[B tensor.Backend](block Block[B], a, b *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return inspect.AttentionMatrix(block, a, b)
}
