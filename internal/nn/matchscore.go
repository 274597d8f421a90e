package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// MatchScore selects the pairwise similarity function used to build
// attention matrices.
type MatchScore int

// Supported match-score functions.
const (
	// Euclidean scores position pairs as 1 / (1 + ||x - y||).
	Euclidean MatchScore = iota
	// Cosine scores position pairs by cosine similarity.
	Cosine
)

// ParseMatchScore converts a configuration string to a MatchScore.
// Unsupported values are a configuration error.
func ParseMatchScore(s string) (MatchScore, error) {
	switch s {
	case "euclidean":
		return Euclidean, nil
	case "cosine":
		return Cosine, nil
	default:
		return 0, fmt.Errorf("unsupported match score %q: must be one of \"euclidean\" or \"cosine\"", s)
	}
}

// String returns the configuration name of the match score.
func (m MatchScore) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Cosine:
		return "cosine"
	default:
		return "unknown"
	}
}

// attentionMatrix computes the pairwise match-score matrix between two
// feature sequences a, b of shape [batch, L, d].
//
// Entry (i, j) scores position i of sentence A against position j of
// sentence B, so the result is [batch, L, L] with rows indexing A.
// Both supported score functions are symmetric in their arguments:
// swapping the sentences transposes the matrix.
func attentionMatrix[B tensor.Backend](score MatchScore, a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("attention: sequence shapes do not match: %v vs %v", a.Shape(), b.Shape()))
	}
	if len(a.Shape()) != 3 {
		panic(fmt.Sprintf("attention: expected 3D sequences [batch, length, depth], got %v", a.Shape()))
	}

	switch score {
	case Euclidean:
		return euclideanMatrix(a, b)
	case Cosine:
		return cosineMatrix(a, b)
	default:
		panic(fmt.Sprintf("attention: unknown match score %d", score))
	}
}

// euclideanMatrix scores every position pair as 1 / (1 + distance).
func euclideanMatrix[B tensor.Backend](a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	diff := a.Unsqueeze(2).Sub(b.Unsqueeze(1)) // [batch, L, L, d]
	dist := diff.Mul(diff).SumDim(3, false).Sqrt()

	denom := dist.AddScalar(1)
	ones := tensor.Ones[float32](denom.Shape(), a.Backend())
	return ones.Div(denom)
}

// cosineMatrix scores every position pair by cosine similarity. Norms
// are floored to keep zero vectors (padding rows) from dividing by
// zero; their scores come out as 0.
func cosineMatrix[B tensor.Backend](a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	dot := a.BatchMatMul(b.Transpose(0, 2, 1)) // [batch, L, L]

	normA := a.Mul(a).SumDim(2, false).Sqrt() // [batch, L]
	normB := b.Mul(b).SumDim(2, false).Sqrt()
	denom := normA.Unsqueeze(2).BatchMatMul(normB.Unsqueeze(1)) // [batch, L, L]

	return dot.Div(denom.ClampMin(weightFloor))
}
