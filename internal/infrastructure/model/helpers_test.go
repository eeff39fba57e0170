package model

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type testTensor struct {
	shape []int
	data  []float32
}

// encodeSafetensors serialises F32 tensors in safetensors layout
func encodeSafetensors(t *testing.T, tensors map[string]testTensor, metadata map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := map[string]any{}
	if metadata != nil {
		header[metadataKey] = metadata
	}
	var body []byte
	for _, name := range names {
		tt := tensors[name]
		begin := len(body)
		for _, v := range tt.data {
			body = binary.LittleEndian.AppendUint32(body, math.Float32bits(v))
		}
		header[name] = tensorHeader{DType: DTypeF32, Shape: tt.shape, DataOffsets: [2]int64{int64(begin), int64(len(body))}}
	}

	hdr, err := json.Marshal(header)
	require.NoError(t, err)

	out := binary.LittleEndian.AppendUint64(nil, uint64(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...)
}

func writeCheckpoint(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// sentimentTensors builds a 6 token, 2 dimensional classifier where dimension 0
// carries positive evidence and dimension 1 negative evidence.
//
//	0 [PAD]  1 [UNK]  2 [CLS]  3 [SEP]  4 love  5 terrible
func sentimentTensors() map[string]testTensor {
	return map[string]testTensor{
		EmbeddingsWeight: {shape: []int{6, 2}, data: []float32{
			0, 0,
			0, 0,
			0, 0,
			0, 0,
			3, 0,
			0, 3,
		}},
		ClassifierWeight: {shape: []int{2, 2}, data: []float32{
			-1, 1, // negative
			1, -1, // positive
		}},
		ClassifierBias: {shape: []int{2}, data: []float32{0, 0}},
	}
}
