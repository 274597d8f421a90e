package tensor

import "math/rand"

func newTyped[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return newTyped[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := newTyped[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with values from the standard normal
// distribution N(0, 1).
func Randn[B Backend](shape Shape, b B) *Tensor[float32, B] {
	t := newTyped[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}
	return t
}

// Rand creates a float32 tensor with values from the uniform
// distribution U(0, 1).
func Rand[B Backend](shape Shape, b B) *Tensor[float32, B] {
	t := newTyped[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = rand.Float32()
	}
	return t
}
