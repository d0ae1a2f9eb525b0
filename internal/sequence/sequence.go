// Package sequence provides protein sequence records and the readers that
// load them.
//
// Residues are stored upper-cased. Validation against a particular alphabet
// is left to the caller since it depends on the substitution model in use.
package sequence

import (
	"fmt"
	"sort"
	"strings"
)

// Sequence is a protein sequence with its record metadata.
//
// Aria equivalent:
//
//	struct Sequence
//	  id: String
//	  protein: String
//	  species: String
//	  residues: String
//	  invariant self.residues.len() > 0
type Sequence struct {
	ID       string `json:"id,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Species  string `json:"species,omitempty"`
	Residues string `json:"residues"`
}

// New creates a sequence from residues.
//
// Aria equivalent:
//
//	fn new(residues: String) -> Result<Sequence, SequenceError>
//	  requires residues.len() > 0
func New(residues string) (*Sequence, error) {
	normalized := strings.ToUpper(strings.TrimSpace(residues))
	if len(normalized) == 0 {
		return nil, &EmptySequenceError{}
	}
	return &Sequence{Residues: normalized}, nil
}

// WithID creates a new sequence with an identifier.
func WithID(residues, id string) (*Sequence, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("ID cannot be empty")
	}

	seq, err := New(residues)
	if err != nil {
		return nil, err
	}

	seq.ID = id
	return seq, nil
}

// Len returns the number of residues.
func (s *Sequence) Len() int {
	return len(s.Residues)
}

// Label returns the "protein - species" description, or whichever half is set.
func (s *Sequence) Label() string {
	switch {
	case s.Protein != "" && s.Species != "":
		return s.Protein + labelSeparator + s.Species
	case s.Protein != "":
		return s.Protein
	default:
		return s.Species
	}
}

// Name returns the identifier, falling back to the label.
func (s *Sequence) Name() string {
	if s.ID != "" {
		return s.ID
	}
	if label := s.Label(); label != "" {
		return label
	}
	return "sequence"
}

// Composition counts each residue.
type Composition map[byte]int

// Composition returns the count of every residue in the sequence.
func (s *Sequence) Composition() Composition {
	counts := make(Composition)
	for i := 0; i < len(s.Residues); i++ {
		counts[s.Residues[i]]++
	}
	return counts
}

// Total returns the total count of all residues.
func (c Composition) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// String lists residue counts in residue order, e.g. "A:2 C:1".
func (c Composition) String() string {
	keys := make([]int, 0, len(c))
	for r := range c {
		keys = append(keys, int(r))
	}
	sort.Ints(keys)

	parts := make([]string, len(keys))
	for i, r := range keys {
		parts[i] = fmt.Sprintf("%c:%d", r, c[byte(r)])
	}
	return strings.Join(parts, " ")
}

// ToFASTA returns the sequence in FASTA format.
func (s *Sequence) ToFASTA() string {
	header := ">" + s.Name()
	if s.ID != "" {
		if label := s.Label(); label != "" {
			header += " " + label
		}
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteRune('\n')

	// Split sequence into 60-character lines
	for i := 0; i < len(s.Residues); i += 60 {
		end := i + 60
		if end > len(s.Residues) {
			end = len(s.Residues)
		}
		sb.WriteString(s.Residues[i:end])
		sb.WriteRune('\n')
	}

	return sb.String()
}

// String returns a string representation of the sequence.
func (s *Sequence) String() string {
	if s.ID != "" {
		return fmt.Sprintf(">%s\n%s", s.ID, s.Residues)
	}
	return s.Residues
}

// Equal checks equality with another sequence.
func (s *Sequence) Equal(other *Sequence) bool {
	if other == nil {
		return false
	}
	return *s == *other
}
