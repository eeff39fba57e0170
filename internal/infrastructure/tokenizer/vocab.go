package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Special tokens of BERT-style vocabularies
const (
	PadToken  = "[PAD]"
	UnkToken  = "[UNK]"
	ClsToken  = "[CLS]"
	SepToken  = "[SEP]"
	MaskToken = "[MASK]"
)

// Vocab maps WordPiece tokens to ids. The id of a token is its line index.
type Vocab struct {
	tokens []string
	ids    map[string]int32
}

// LoadVocab reads a vocab.txt stream
func LoadVocab(r io.Reader) (*Vocab, error) {
	v := &Vocab{ids: make(map[string]int32)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		token := scanner.Text()
		id := int32(len(v.tokens))
		v.tokens = append(v.tokens, token)
		if _, dup := v.ids[token]; !dup {
			v.ids[token] = id
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	for _, special := range []string{PadToken, UnkToken, ClsToken, SepToken} {
		if _, ok := v.ids[special]; !ok {
			return nil, fmt.Errorf("vocabulary has no %s token", special)
		}
	}

	return v, nil
}

// LoadVocabFile reads a vocab.txt file
func LoadVocabFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	return LoadVocab(f)
}

// Size returns the number of entries, duplicates included
func (v *Vocab) Size() int {
	return len(v.tokens)
}

// ID returns the id of token
func (v *Vocab) ID(token string) (int32, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token returns the token with the given id
func (v *Vocab) Token(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}
