package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

const (
	headerSizeBytes = 8
	maxHeaderBytes  = 100 << 20
	metadataKey     = "__metadata__"
)

// Supported tensor dtypes
const (
	DTypeF32  = "F32"
	DTypeF16  = "F16"
	DTypeBF16 = "BF16"
)

// Tensor is one named tensor decoded to float32
type Tensor struct {
	Name  string
	DType string
	Shape []int
	Data  []float32
}

// Checkpoint is a parsed safetensors file
type Checkpoint struct {
	Tensors  map[string]*Tensor
	Metadata map[string]string

	// Digest is the hex sha256 of the file contents
	Digest string
}

// Names returns the tensor names in sorted order
func (c *Checkpoint) Names() []string {
	names := make([]string, 0, len(c.Tensors))
	for name := range c.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type tensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// LoadCheckpoint reads and parses a safetensors file
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return ParseCheckpoint(data)
}

// ParseCheckpoint parses the safetensors layout: an 8 byte little endian
// header length, a JSON header, then the raw tensor bytes.
func ParseCheckpoint(data []byte) (*Checkpoint, error) {
	if len(data) < headerSizeBytes {
		return nil, fmt.Errorf("checkpoint too short: %d bytes", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:headerSizeBytes])
	if headerLen > maxHeaderBytes || headerLen > uint64(len(data)-headerSizeBytes) {
		return nil, fmt.Errorf("checkpoint header length %d exceeds file size", headerLen)
	}
	headerEnd := headerSizeBytes + int(headerLen)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[headerSizeBytes:headerEnd], &raw); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint header: %w", err)
	}

	buf := data[headerEnd:]
	ckpt := &Checkpoint{
		Tensors:  make(map[string]*Tensor, len(raw)),
		Metadata: map[string]string{},
	}
	sum := sha256.Sum256(data)
	ckpt.Digest = hex.EncodeToString(sum[:])

	for name, msg := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &ckpt.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode checkpoint metadata: %w", err)
			}
			continue
		}

		var hdr tensorHeader
		if err := json.Unmarshal(msg, &hdr); err != nil {
			return nil, fmt.Errorf("tensor %s: bad header: %w", name, err)
		}
		tensor, err := decodeTensor(name, hdr, buf)
		if err != nil {
			return nil, err
		}
		ckpt.Tensors[name] = tensor
	}

	return ckpt, nil
}

func decodeTensor(name string, hdr tensorHeader, buf []byte) (*Tensor, error) {
	begin, end := hdr.DataOffsets[0], hdr.DataOffsets[1]
	if begin < 0 || end < begin || end > int64(len(buf)) {
		return nil, fmt.Errorf("tensor %s: data offsets [%d,%d) outside buffer of %d bytes", name, begin, end, len(buf))
	}

	size, err := dtypeSize(hdr.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	n, err := elementCount(hdr.Shape, int((end-begin)/int64(size)))
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	if int64(n)*int64(size) != end-begin {
		return nil, fmt.Errorf("tensor %s: shape %v needs %d bytes, got %d", name, hdr.Shape, n*size, end-begin)
	}

	t := &Tensor{Name: name, DType: hdr.DType, Shape: hdr.Shape}
	raw := buf[begin:end]
	t.Data = make([]float32, n)
	switch hdr.DType {
	case DTypeF32:
		for i := range t.Data {
			t.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case DTypeF16:
		for i := range t.Data {
			t.Data[i] = halfToFloat32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	case DTypeBF16:
		for i := range t.Data {
			t.Data[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[i*2:])) << 16)
		}
	}
	return t, nil
}

// elementCount multiplies the dimensions of shape, failing as soon as the
// product would exceed limit.
func elementCount(shape []int, limit int) (int, error) {
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension in shape %v", shape)
		}
		if d == 0 {
			return 0, nil
		}
	}
	n := 1
	for _, d := range shape {
		if n > limit/d {
			return 0, fmt.Errorf("shape %v holds more elements than the %d available", shape, limit)
		}
		n *= d
	}
	return n, nil
}

func dtypeSize(dtype string) (int, error) {
	switch dtype {
	case DTypeF32:
		return 4, nil
	case DTypeF16, DTypeBF16:
		return 2, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

// halfToFloat32 widens an IEEE 754 binary16 value
func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		return math.Float32frombits(sign | e<<23 | frac<<13)
	case exp == 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	}
}
