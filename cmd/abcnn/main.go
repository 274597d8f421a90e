// Package main provides the abcnn CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abcnn-ml/abcnn/internal/logger"
	"github.com/abcnn-ml/abcnn/internal/serialization"
	"github.com/abcnn-ml/abcnn/internal/setup"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("abcnn %s\n", version)
	case "check":
		err = runCheck(os.Args[2:])
	case "describe":
		err = runDescribe(os.Args[2:])
	case "score":
		err = runScore(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.L.Error().Err(err).Msg(os.Args[1] + " failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("abcnn - attention-based convolutional text-pair similarity")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version     Show version")
	fmt.Println("  check       Validate a model configuration and build the model")
	fmt.Println("  describe    Print the tensor index of a checkpoint")
	fmt.Println("  score       Score tokenized sentence pairs with a checkpoint")
}

// runCheck validates a configuration and proves it builds by
// constructing the model with a placeholder embedding table.
func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "model configuration file")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("check: -config is required")
	}
	logger.Setup(*level, false)

	cfg, err := setup.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	backend, err := setup.Backend(cfg.Device)
	if err != nil {
		return err
	}

	// A two-row table (padding + one token) is enough to exercise
	// every size check in the construction path.
	weights := tensor.Zeros[float32](tensor.Shape{2, cfg.Embeddings.Size}, backend)
	model, err := setup.Model(cfg, weights, backend)
	if err != nil {
		return err
	}

	params := 0
	for _, p := range model.Parameters() {
		params += p.Tensor().Shape().NumElements()
	}
	logger.L.Info().
		Str("config", *configPath).
		Int("layers", len(model.Layers())).
		Int("final_size", model.FinalSize()).
		Int("parameters", params-weights.Shape().NumElements()).
		Msg("configuration is valid")
	return nil
}

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	checkpointPath := fs.String("checkpoint", "", "checkpoint file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *checkpointPath == "" {
		return fmt.Errorf("describe: -checkpoint is required")
	}

	header, err := serialization.ReadHeader(*checkpointPath)
	if err != nil {
		return err
	}

	fmt.Printf("model_type: %s\n", header.ModelType)
	fmt.Printf("created_at: %s\n", header.CreatedAt)
	fmt.Printf("tensors:    %d\n", len(header.Tensors))
	for _, meta := range header.Tensors {
		fmt.Printf("  %-48s %-8s %v\n", meta.Name, meta.DType, meta.Shape)
	}
	return nil
}

// runScore reads tokenized pairs (one per line, the two sides'
// space-separated token indices split by "|"), pads or truncates them
// to the configured length, and prints one similarity score per line.
func runScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", "", "model configuration file")
	checkpointPath := fs.String("checkpoint", "", "checkpoint file")
	pairsPath := fs.String("pairs", "", "tokenized pairs file")
	level := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" || *checkpointPath == "" || *pairsPath == "" {
		return fmt.Errorf("score: -config, -checkpoint and -pairs are required")
	}
	logger.Setup(*level, false)

	cfg, err := setup.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	backend, err := setup.Backend(cfg.Device)
	if err != nil {
		return err
	}

	state, _, err := serialization.Load(*checkpointPath)
	if err != nil {
		return err
	}
	embeddingRaw, ok := state["embedding.weight"]
	if !ok {
		return fmt.Errorf("checkpoint has no embedding.weight tensor")
	}
	weights := tensor.New[float32](embeddingRaw, backend)

	model, err := setup.Model(cfg, weights, backend)
	if err != nil {
		return err
	}
	if err := model.LoadStateDict(state); err != nil {
		return err
	}
	model.Eval()

	pairs, err := readPairs(*pairsPath, cfg.Model.MaxLength)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no pairs in %s", *pairsPath)
	}

	length := cfg.Model.MaxLength
	input, err := tensor.FromSlice(pairs, tensor.Shape{len(pairs) / (2 * length), 2, length}, backend)
	if err != nil {
		return err
	}

	scores := model.Forward(input)
	for _, s := range scores.Data() {
		fmt.Printf("%.6f\n", s)
	}
	return nil
}

// readPairs parses the pairs file into a flat [n, 2, length] index
// buffer, zero-padded on the right.
func readPairs(path string, length int) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pairs %s: %w", path, err)
	}
	defer file.Close()

	var out []int64
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sides := strings.Split(line, "|")
		if len(sides) != 2 {
			return nil, fmt.Errorf("line %d: expected two sides split by %q", lineNo, "|")
		}
		for _, side := range sides {
			indices, err := parseIndices(side, length)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			out = append(out, indices...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pairs %s: %w", path, err)
	}
	return out, nil
}

func parseIndices(s string, length int) ([]int64, error) {
	fields := strings.Fields(s)
	indices := make([]int64, length)
	for i, f := range fields {
		if i >= length {
			break
		}
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad token index %q", f)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative token index %d", v)
		}
		indices[i] = v
	}
	return indices, nil
}
