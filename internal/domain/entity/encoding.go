package entity

// Encoding is the numeric form of one input text
type Encoding struct {
	IDs           []int32
	AttentionMask []int32
	TypeIDs       []int32
	// Truncated is set when tokens were dropped to fit the maximum length
	Truncated bool
}

// Len returns the sequence length including special and padding tokens
func (e *Encoding) Len() int {
	return len(e.IDs)
}

// AttendedTokens counts positions with a non-zero attention mask
func (e *Encoding) AttendedTokens() int {
	n := 0
	for _, m := range e.AttentionMask {
		if m != 0 {
			n++
		}
	}
	return n
}
