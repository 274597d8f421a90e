// Package setup turns a declarative JSON configuration into a fully
// constructed model: config parsing and validation, block/layer/model
// builders, device selection, and embedding-matrix construction.
package setup

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
)

// Block type names accepted in configuration.
const (
	TypeBCNN   = "bcnn"
	TypeABCNN1 = "abcnn1"
	TypeABCNN2 = "abcnn2"
	TypeABCNN3 = "abcnn3"
)

// Config is the top-level model configuration.
type Config struct {
	Device     string           `json:"device"`
	Embeddings EmbeddingsConfig `json:"embeddings"`
	Model      ModelConfig      `json:"model"`
}

// EmbeddingsConfig describes the embedding table.
type EmbeddingsConfig struct {
	Size int `json:"size"`
}

// ModelConfig describes the layer stack and the classification head
// wiring.
type ModelConfig struct {
	MaxLength          int             `json:"max_length"`
	UseAllLayerOutputs bool            `json:"use_all_layer_outputs"`
	Layers             [][]BlockConfig `json:"layers"`
}

// BlockConfig describes one block inside a layer.
type BlockConfig struct {
	Type         string  `json:"type"`
	InputSize    int     `json:"input_size"`
	OutputSize   int     `json:"output_size"`
	Width        int     `json:"width"`
	DropoutRate  float32 `json:"dropout_rate"`
	MatchScore   string  `json:"match_score"`
	ShareWeights bool    `json:"share_weights"`
}

// ParseConfig decodes and validates a JSON configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Validate checks the whole configuration and fails fast on the first
// problem, identifying the offending layer and block.
func (c *Config) Validate() error {
	if c.Device != "cpu" {
		return fmt.Errorf("unsupported device %q: must be \"cpu\"", c.Device)
	}
	if c.Embeddings.Size <= 0 {
		return fmt.Errorf("embeddings.size must be positive, got %d", c.Embeddings.Size)
	}
	if c.Model.MaxLength <= 0 {
		return fmt.Errorf("model.max_length must be positive, got %d", c.Model.MaxLength)
	}
	if len(c.Model.Layers) == 0 {
		return fmt.Errorf("model.layers must contain at least one layer")
	}

	expectedInput := c.Embeddings.Size
	for i, layer := range c.Model.Layers {
		if len(layer) == 0 {
			return fmt.Errorf("layer %d: must contain at least one block", i)
		}
		layerOutput := 0
		for j, block := range layer {
			if err := block.validate(c.Model.MaxLength); err != nil {
				return fmt.Errorf("layer %d, block %d: %w", i, j, err)
			}
			if block.InputSize != expectedInput {
				return fmt.Errorf("layer %d, block %d: input_size %d does not match previous layer output %d",
					i, j, block.InputSize, expectedInput)
			}
			layerOutput += block.OutputSize
		}
		expectedInput = layerOutput
	}
	return nil
}

func (b *BlockConfig) validate(maxLength int) error {
	switch b.Type {
	case TypeBCNN, TypeABCNN1, TypeABCNN2, TypeABCNN3:
	default:
		return fmt.Errorf("unsupported block type %q: must be one of %q, %q, %q, %q",
			b.Type, TypeBCNN, TypeABCNN1, TypeABCNN2, TypeABCNN3)
	}
	if b.InputSize <= 0 {
		return fmt.Errorf("input_size must be positive, got %d", b.InputSize)
	}
	if b.OutputSize <= 0 {
		return fmt.Errorf("output_size must be positive, got %d", b.OutputSize)
	}
	if b.Width < 1 || b.Width > maxLength {
		return fmt.Errorf("width %d out of range [1, %d]", b.Width, maxLength)
	}
	if b.DropoutRate < 0 || b.DropoutRate >= 1 {
		return fmt.Errorf("dropout_rate %v out of range [0, 1)", b.DropoutRate)
	}
	if b.Type != TypeBCNN {
		switch b.MatchScore {
		case "euclidean", "cosine":
		default:
			return fmt.Errorf("unsupported match_score %q: must be one of \"euclidean\" or \"cosine\"", b.MatchScore)
		}
	}
	return nil
}

// FinalSize returns the input dimension of the classification head for
// this configuration: both pooled sentence vectors of the last layer,
// or of the embeddings plus every layer when use_all_layer_outputs is
// set.
func (c *Config) FinalSize() int {
	layers := c.Model.Layers
	if !c.Model.UseAllLayerOutputs {
		last := 0
		for _, block := range layers[len(layers)-1] {
			last += block.OutputSize
		}
		return 2 * last
	}
	size := c.Embeddings.Size
	for _, layer := range layers {
		for _, block := range layer {
			size += block.OutputSize
		}
	}
	return 2 * size
}
