package setup

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/logger"
	"github.com/abcnn-ml/abcnn/internal/nn"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Block builds one block from its validated configuration.
//
// The convolution of an ABCNN1/ABCNN3 block consumes the attention
// feature map stacked onto the representation, so its kernel covers
// twice the block's input size.
func Block[B tensor.Backend](cfg BlockConfig, maxLength int, backend B) (nn.Block[B], error) {
	switch cfg.Type {
	case TypeBCNN:
		conv := nn.NewConvolution(cfg.InputSize, cfg.OutputSize, cfg.Width, 1, cfg.ShareWeights, backend)
		pool := nn.NewWidthAP[B](cfg.Width)
		return nn.NewBCNNBlock(conv, pool, cfg.DropoutRate), nil

	case TypeABCNN1:
		score, err := nn.ParseMatchScore(cfg.MatchScore)
		if err != nil {
			return nil, err
		}
		attn := nn.NewABCNN1Attention(cfg.InputSize, maxLength, cfg.ShareWeights, score, backend)
		conv := nn.NewConvolution(cfg.InputSize, cfg.OutputSize, cfg.Width, 2, cfg.ShareWeights, backend)
		pool := nn.NewWidthAP[B](cfg.Width)
		return nn.NewABCNN1Block(attn, conv, pool, cfg.DropoutRate), nil

	case TypeABCNN2:
		score, err := nn.ParseMatchScore(cfg.MatchScore)
		if err != nil {
			return nil, err
		}
		conv := nn.NewConvolution(cfg.InputSize, cfg.OutputSize, cfg.Width, 1, cfg.ShareWeights, backend)
		attn := nn.NewABCNN2Attention[B](maxLength, cfg.Width, score)
		return nn.NewABCNN2Block(conv, attn, cfg.DropoutRate), nil

	case TypeABCNN3:
		score, err := nn.ParseMatchScore(cfg.MatchScore)
		if err != nil {
			return nil, err
		}
		attn1 := nn.NewABCNN1Attention(cfg.InputSize, maxLength, cfg.ShareWeights, score, backend)
		conv := nn.NewConvolution(cfg.InputSize, cfg.OutputSize, cfg.Width, 2, cfg.ShareWeights, backend)
		attn2 := nn.NewABCNN2Attention[B](maxLength, cfg.Width, score)
		return nn.NewABCNN3Block(attn1, conv, attn2, cfg.DropoutRate), nil

	default:
		return nil, fmt.Errorf("unsupported block type %q", cfg.Type)
	}
}

// Layer builds one layer of parallel blocks.
func Layer[B tensor.Backend](cfgs []BlockConfig, maxLength int, backend B) (*nn.Layer[B], error) {
	blocks := make([]nn.Block[B], 0, len(cfgs))
	for i, cfg := range cfgs {
		block, err := Block(cfg, maxLength, backend)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	return nn.NewLayer(blocks), nil
}

// Model builds the full model from a validated configuration and a
// prebuilt embedding matrix [vocab, embeddings.size].
func Model[B tensor.Backend](cfg *Config, embeddingWeight *tensor.Tensor[float32, B], backend B) (*nn.Model[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shape := embeddingWeight.Shape()
	if len(shape) != 2 || shape[1] != cfg.Embeddings.Size {
		return nil, fmt.Errorf("embedding matrix shape %v does not match embeddings.size %d", shape, cfg.Embeddings.Size)
	}

	embedding, err := nn.NewEmbedding(embeddingWeight)
	if err != nil {
		return nil, err
	}

	layers := make([]*nn.Layer[B], 0, len(cfg.Model.Layers))
	for i, layerCfg := range cfg.Model.Layers {
		layer, err := Layer(layerCfg, cfg.Model.MaxLength, backend)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		logger.L.Debug().
			Int("layer", i).
			Int("blocks", len(layerCfg)).
			Int("output_size", layer.OutputSize()).
			Msg("layer built")
		layers = append(layers, layer)
	}

	model, err := nn.NewModel(embedding, layers, cfg.Model.UseAllLayerOutputs, cfg.FinalSize(), cfg.Model.MaxLength, backend)
	if err != nil {
		return nil, err
	}

	logger.L.Info().
		Int("layers", len(layers)).
		Int("vocab", shape[0]).
		Int("embedding_size", cfg.Embeddings.Size).
		Int("final_size", cfg.FinalSize()).
		Int("max_length", cfg.Model.MaxLength).
		Bool("use_all_layer_outputs", cfg.Model.UseAllLayerOutputs).
		Msg("model built")
	return model, nil
}
