package entity

import (
	"fmt"
	"math"
)

// Sentiment is the binary label returned by the classifier
type Sentiment string

// Sentiment values
const (
	SentimentNegative Sentiment = "negative"
	SentimentPositive Sentiment = "positive"
)

// NumClasses is the fixed number of output classes of the model
const NumClasses = 2

// IsValid reports whether s is one of the two known labels
func (s Sentiment) IsValid() bool {
	return s == SentimentNegative || s == SentimentPositive
}

// ParseSentiment converts a raw label into a Sentiment
func ParseSentiment(raw string) (Sentiment, error) {
	s := Sentiment(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown sentiment label %q", raw)
	}
	return s, nil
}

// Labels maps a class index to its sentiment
type Labels [NumClasses]Sentiment

// DefaultLabels is the 0=negative, 1=positive convention
var DefaultLabels = Labels{SentimentNegative, SentimentPositive}

// Validate checks that both labels are known and distinct
func (l Labels) Validate() error {
	for i, s := range l {
		if !s.IsValid() {
			return fmt.Errorf("class %d: unknown sentiment label %q", i, s)
		}
	}
	if l[0] == l[1] {
		return fmt.Errorf("classes 0 and 1 share label %q", l[0])
	}
	return nil
}

// ForIndex returns the label of a class index
func (l Labels) ForIndex(idx int) (Sentiment, error) {
	if idx < 0 || idx >= NumClasses {
		return "", fmt.Errorf("class index %d out of range", idx)
	}
	return l[idx], nil
}

// Logits holds the two raw scores produced by a forward pass, by class
// index. Labels decides which sentiment each index means.
type Logits struct {
	Class0 float32 `json:"class_0"`
	Class1 float32 `json:"class_1"`
}

// NewLogits builds Logits from a model output vector
func NewLogits(scores []float32) (Logits, error) {
	if len(scores) != NumClasses {
		return Logits{}, fmt.Errorf("expected %d logits, got %d", NumClasses, len(scores))
	}
	return Logits{Class0: scores[0], Class1: scores[1]}, nil
}

// IsFinite reports whether both scores are real numbers
func (l Logits) IsFinite() bool {
	for _, v := range []float32{l.Class0, l.Class1} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// ArgMax returns the index of the higher score. Ties go to class 0.
func (l Logits) ArgMax() int {
	if l.Class1 > l.Class0 {
		return 1
	}
	return 0
}
