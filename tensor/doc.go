// Copyright 2026 The ABCNN Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API.
//
// # Overview
//
// Tensors are contiguous row-major buffers with shape metadata. This
// package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting for element-wise operations
//   - Zero-copy reshape and views where possible
//
// # Basic Usage
//
//	import (
//	    "github.com/abcnn-ml/abcnn/backend/cpu"
//	    "github.com/abcnn-ml/abcnn/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	    _ = z
//	}
//
// # Supported Data Types
//
// The DType constraint admits exactly the two types the model needs:
//   - float32 for feature sequences, weights, and scores
//   - int64 for token indices
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
package tensor
