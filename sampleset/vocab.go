package sampleset

// Vocab maps the codes of one feature to integer tokens and back.
type Vocab struct {
	Word2Idx map[string]int
	Idx2Word map[int]string
}

func NewVocab() *Vocab {
	return &Vocab{
		Word2Idx: make(map[string]int),
		Idx2Word: make(map[int]string),
	}
}

// Add assigns the next free token to word if unseen, and returns word's
// token either way.
func (v *Vocab) Add(word string) int {
	if idx, exists := v.Word2Idx[word]; exists {
		return idx
	}

	idx := len(v.Word2Idx)
	v.Word2Idx[word] = idx
	v.Idx2Word[idx] = word

	return idx
}

func (v *Vocab) Size() int {
	return len(v.Word2Idx)
}

// BuildVocab constructs the vocabulary for one feature, with tokens assigned
// in first-seen corpus order.
func (s *Set) BuildVocab(feature string) *Vocab {
	v := NewVocab()
	for _, sample := range s.Samples {
		for _, code := range sample.Features[feature] {
			v.Add(code)
		}
	}

	return v
}
