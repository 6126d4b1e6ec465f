// Package vec holds the float32 vector helpers shared by the cache, the
// topic tracker, and the storage layers.
package vec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode converts a float32 slice to a LittleEndian byte slice, the layout
// sqlite-vec accepts as BLOB input and the one used for KV cache entries.
func Encode(v []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &out); err != nil {
		return nil, fmt.Errorf("failed to deserialize vector: %w", err)
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Blend returns the exponential moving average of old toward next with the
// given weight for next. The result is a fresh slice; inputs are not mutated.
func Blend(old, next []float32, weight float64) []float32 {
	if len(old) != len(next) {
		out := make([]float32, len(next))
		copy(out, next)
		return out
	}
	out := make([]float32, len(old))
	for i := range old {
		out[i] = float32(float64(old[i])*(1-weight) + float64(next[i])*weight)
	}
	return out
}
