// Package model loads sentiment checkpoints and runs them in-process.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
)

// BackendName identifies the in-process backend
const BackendName = "native"

// Tensor names of the classifier architecture
const (
	EmbeddingsWeight = "embeddings.word_embeddings.weight"
	PoolerWeight     = "pooler.dense.weight"
	PoolerBias       = "pooler.dense.bias"
	ClassifierWeight = "classifier.weight"
	ClassifierBias   = "classifier.bias"

	// Id2LabelMetadata is the checkpoint metadata key overriding the label order
	Id2LabelMetadata = "id2label"
)

// knownTensors is the full tensor set of the architecture. Anything else,
// such as transformer encoder layers, cannot be run by Forward.
var knownTensors = map[string]bool{
	EmbeddingsWeight: true,
	PoolerWeight:     true,
	PoolerBias:       true,
	ClassifierWeight: true,
	ClassifierBias:   true,
}

// Classifier is a bag-of-embeddings sequence classifier: the attention-masked
// mean of the token embeddings, an optional tanh pooler, and a two-class
// linear head. Weights are read-only after construction, so Forward may run
// concurrently.
type Classifier struct {
	vocabSize int
	hidden    int

	embeddings  []float32
	poolerW     []float32
	poolerB     []float32
	classifierW []float32
	classifierB []float32

	labels   entity.Labels
	revision string
}

// Load reads a safetensors checkpoint and builds a Classifier whose
// embedding table must match vocabSize.
func Load(path string, vocabSize int) (*Classifier, error) {
	ckpt, err := LoadCheckpoint(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrModelLoad, err)
	}
	return NewClassifier(ckpt, vocabSize)
}

// NewClassifier validates checkpoint shapes against the architecture
func NewClassifier(ckpt *Checkpoint, vocabSize int) (*Classifier, error) {
	var unknown []string
	for _, name := range ckpt.Names() {
		if !knownTensors[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, loadErrorf("checkpoint has tensors outside the bag-of-embeddings architecture: %s", summarizeNames(unknown))
	}

	emb, err := requireTensor(ckpt, EmbeddingsWeight, 2)
	if err != nil {
		return nil, err
	}
	if emb.Shape[0] != vocabSize {
		return nil, loadErrorf("%s has %d rows, tokenizer vocabulary has %d entries", EmbeddingsWeight, emb.Shape[0], vocabSize)
	}
	hidden := emb.Shape[1]
	if hidden == 0 {
		return nil, loadErrorf("%s has zero hidden size", EmbeddingsWeight)
	}

	clsW, err := requireTensor(ckpt, ClassifierWeight, 2)
	if err != nil {
		return nil, err
	}
	if clsW.Shape[0] != entity.NumClasses {
		return nil, loadErrorf("%s has %d output classes, expected %d", ClassifierWeight, clsW.Shape[0], entity.NumClasses)
	}
	if clsW.Shape[1] != hidden {
		return nil, loadErrorf("%s input size %d does not match hidden size %d", ClassifierWeight, clsW.Shape[1], hidden)
	}

	clsB, err := requireTensor(ckpt, ClassifierBias, 1)
	if err != nil {
		return nil, err
	}
	if clsB.Shape[0] != entity.NumClasses {
		return nil, loadErrorf("%s has %d entries, expected %d", ClassifierBias, clsB.Shape[0], entity.NumClasses)
	}

	c := &Classifier{
		vocabSize:   vocabSize,
		hidden:      hidden,
		embeddings:  emb.Data,
		classifierW: clsW.Data,
		classifierB: clsB.Data,
		revision:    ckpt.Digest,
	}

	_, hasW := ckpt.Tensors[PoolerWeight]
	_, hasB := ckpt.Tensors[PoolerBias]
	switch {
	case hasW && hasB:
		pw, err := requireTensor(ckpt, PoolerWeight, 2)
		if err != nil {
			return nil, err
		}
		if pw.Shape[0] != hidden || pw.Shape[1] != hidden {
			return nil, loadErrorf("%s shape %v, expected [%d %d]", PoolerWeight, pw.Shape, hidden, hidden)
		}
		pb, err := requireTensor(ckpt, PoolerBias, 1)
		if err != nil {
			return nil, err
		}
		if pb.Shape[0] != hidden {
			return nil, loadErrorf("%s has %d entries, expected %d", PoolerBias, pb.Shape[0], hidden)
		}
		c.poolerW, c.poolerB = pw.Data, pb.Data
	case hasW != hasB:
		return nil, loadErrorf("%s and %s must be present together", PoolerWeight, PoolerBias)
	}

	labels, err := parseLabels(ckpt.Metadata)
	if err != nil {
		return nil, err
	}
	c.labels = labels

	return c, nil
}

// Forward runs the classifier over one encoding
func (c *Classifier) Forward(ctx context.Context, enc *entity.Encoding) (entity.Logits, error) {
	if err := ctx.Err(); err != nil {
		return entity.Logits{}, err
	}
	if len(enc.AttentionMask) != len(enc.IDs) {
		return entity.Logits{}, fmt.Errorf("%w: %d ids but %d mask entries", service.ErrInference, len(enc.IDs), len(enc.AttentionMask))
	}

	pooled := make([]float64, c.hidden)
	count := 0
	for i, id := range enc.IDs {
		if enc.AttentionMask[i] == 0 {
			continue
		}
		if id < 0 || int(id) >= c.vocabSize {
			return entity.Logits{}, fmt.Errorf("%w: token id %d outside vocabulary of %d", service.ErrInference, id, c.vocabSize)
		}
		row := c.embeddings[int(id)*c.hidden : (int(id)+1)*c.hidden]
		for j, v := range row {
			pooled[j] += float64(v)
		}
		count++
	}
	if count == 0 {
		return entity.Logits{}, fmt.Errorf("%w: encoding has no attended tokens", service.ErrInference)
	}
	for j := range pooled {
		pooled[j] /= float64(count)
	}

	if c.poolerW != nil {
		pooled = dense(c.poolerW, c.poolerB, pooled, math.Tanh)
	}

	out := dense(c.classifierW, c.classifierB, pooled, nil)
	logits := entity.Logits{Class0: float32(out[0]), Class1: float32(out[1])}
	if !logits.IsFinite() {
		return entity.Logits{}, fmt.Errorf("%w: non-finite logits %v", service.ErrInference, out)
	}
	return logits, nil
}

// Labels returns the class index to sentiment mapping of the checkpoint
func (c *Classifier) Labels() entity.Labels {
	return c.labels
}

// Revision returns the checkpoint digest
func (c *Classifier) Revision() string {
	return c.revision
}

// HiddenSize returns the embedding width
func (c *Classifier) HiddenSize() int {
	return c.hidden
}

// Name implements service.InferenceBackend
func (c *Classifier) Name() string {
	return BackendName
}

// Close implements service.InferenceBackend
func (c *Classifier) Close() error {
	return nil
}

// dense computes act(W·x + b) for a row-major [len(b), len(x)] weight
func dense(w, b []float32, x []float64, act func(float64) float64) []float64 {
	in := len(x)
	out := make([]float64, len(b))
	for i := range out {
		sum := float64(b[i])
		row := w[i*in : (i+1)*in]
		for j, v := range row {
			sum += float64(v) * x[j]
		}
		if act != nil {
			sum = act(sum)
		}
		out[i] = sum
	}
	return out
}

func requireTensor(ckpt *Checkpoint, name string, rank int) (*Tensor, error) {
	t, ok := ckpt.Tensors[name]
	if !ok {
		return nil, loadErrorf("checkpoint has no tensor %s (found %s)", name, strings.Join(ckpt.Names(), ", "))
	}
	if len(t.Shape) != rank {
		return nil, loadErrorf("%s has rank %d, expected %d", name, len(t.Shape), rank)
	}
	return t, nil
}

// parseLabels reads {"0": "negative", "1": "positive"} style metadata
func parseLabels(metadata map[string]string) (entity.Labels, error) {
	raw, ok := metadata[Id2LabelMetadata]
	if !ok {
		return entity.DefaultLabels, nil
	}

	var id2label map[string]string
	if err := json.Unmarshal([]byte(raw), &id2label); err != nil {
		return entity.Labels{}, loadErrorf("metadata %s is not a JSON object: %v", Id2LabelMetadata, err)
	}
	if len(id2label) != entity.NumClasses {
		return entity.Labels{}, loadErrorf("metadata %s has %d labels, expected %d", Id2LabelMetadata, len(id2label), entity.NumClasses)
	}

	var labels entity.Labels
	for key, value := range id2label {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= entity.NumClasses {
			return entity.Labels{}, loadErrorf("metadata %s has invalid class index %q", Id2LabelMetadata, key)
		}
		s, err := entity.ParseSentiment(strings.ToLower(value))
		if err != nil {
			return entity.Labels{}, loadErrorf("metadata %s: %v", Id2LabelMetadata, err)
		}
		labels[idx] = s
	}
	if err := labels.Validate(); err != nil {
		return entity.Labels{}, loadErrorf("metadata %s: %v", Id2LabelMetadata, err)
	}
	return labels, nil
}

// summarizeNames lists the first few names and counts the rest
func summarizeNames(names []string) string {
	const shown = 3
	if len(names) <= shown {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:shown], ", "), len(names)-shown)
}

func loadErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrModelLoad, fmt.Sprintf(format, args...))
}
