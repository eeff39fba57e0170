// Package tokenizer implements the uncased BERT WordPiece tokenizer.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
)

const (
	continuationPrefix = "##"
	maxCharsPerWord    = 100
)

// Options controls encoding
type Options struct {
	MaxSequenceLength int
	PadToMaxLength    bool
	Lowercase         bool
}

// WordPiece encodes text with a fixed vocabulary. It is immutable after
// construction and safe for concurrent use.
type WordPiece struct {
	vocab    *Vocab
	opts     Options
	specials []string

	padID int32
	unkID int32
	clsID int32
	sepID int32
}

// New creates a WordPiece tokenizer over vocab
func New(vocab *Vocab, opts Options) (*WordPiece, error) {
	if vocab == nil {
		return nil, errors.New("vocabulary is required")
	}
	if opts.MaxSequenceLength < 2 {
		return nil, fmt.Errorf("max sequence length must fit [CLS] and [SEP], got %d", opts.MaxSequenceLength)
	}

	t := &WordPiece{vocab: vocab, opts: opts}
	t.padID, _ = vocab.ID(PadToken)
	t.unkID, _ = vocab.ID(UnkToken)
	t.clsID, _ = vocab.ID(ClsToken)
	t.sepID, _ = vocab.ID(SepToken)
	for _, sp := range []string{PadToken, UnkToken, ClsToken, SepToken, MaskToken} {
		if _, ok := vocab.ID(sp); ok {
			t.specials = append(t.specials, sp)
		}
	}
	return t, nil
}

// NewFromFile loads vocab.txt and creates a tokenizer
func NewFromFile(path string, opts Options) (*WordPiece, error) {
	vocab, err := LoadVocabFile(path)
	if err != nil {
		return nil, err
	}
	return New(vocab, opts)
}

// VocabSize returns the number of vocabulary entries
func (t *WordPiece) VocabSize() int {
	return t.vocab.Size()
}

// MaxSequenceLength returns the longest encoding produced, special tokens included
func (t *WordPiece) MaxSequenceLength() int {
	return t.opts.MaxSequenceLength
}

// Tokenize returns the WordPiece tokens of text without special tokens
func (t *WordPiece) Tokenize(text string) []string {
	ids, _ := t.wordPieceIDs(text, -1)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i], _ = t.vocab.Token(id)
	}
	return tokens
}

// Encode converts text into [CLS] tokens [SEP], truncated to the maximum
// sequence length and optionally padded to it.
func (t *WordPiece) Encode(text string) (*entity.Encoding, error) {
	budget := t.opts.MaxSequenceLength - 2
	body, truncated := t.wordPieceIDs(text, budget)

	length := len(body) + 2
	if t.opts.PadToMaxLength {
		length = t.opts.MaxSequenceLength
	}

	enc := &entity.Encoding{
		IDs:           make([]int32, 0, length),
		AttentionMask: make([]int32, length),
		TypeIDs:       make([]int32, length),
		Truncated:     truncated,
	}
	enc.IDs = append(enc.IDs, t.clsID)
	enc.IDs = append(enc.IDs, body...)
	enc.IDs = append(enc.IDs, t.sepID)
	for i := range enc.IDs {
		enc.AttentionMask[i] = 1
	}
	for len(enc.IDs) < length {
		enc.IDs = append(enc.IDs, t.padID)
	}

	return enc, nil
}

// wordPieceIDs tokenizes text and stops once limit ids were produced.
// A negative limit means no limit. Special tokens typed in the text keep
// their own ids.
func (t *WordPiece) wordPieceIDs(text string, limit int) ([]int32, bool) {
	var ids []int32
	for _, seg := range splitSpecial(text, t.specials) {
		var pieces []int32
		if seg.special {
			id, _ := t.vocab.ID(seg.text)
			pieces = []int32{id}
		} else {
			for _, word := range basicTokenize(seg.text, t.opts.Lowercase) {
				pieces = append(pieces, t.splitWord(word)...)
			}
		}
		for _, id := range pieces {
			if limit >= 0 && len(ids) == limit {
				return ids, true
			}
			ids = append(ids, id)
		}
	}
	return ids, false
}

// splitWord applies greedy longest-match-first WordPiece to one word
func (t *WordPiece) splitWord(word string) []int32 {
	chars := []rune(word)
	if len(chars) > maxCharsPerWord {
		return []int32{t.unkID}
	}

	var pieces []int32
	for start := 0; start < len(chars); {
		end := len(chars)
		matched := int32(-1)
		for start < end {
			piece := string(chars[start:end])
			if start > 0 {
				piece = continuationPrefix + piece
			}
			if id, ok := t.vocab.ID(piece); ok {
				matched = id
				break
			}
			end--
		}
		if matched < 0 {
			return []int32{t.unkID}
		}
		pieces = append(pieces, matched)
		start = end
	}
	return pieces
}
