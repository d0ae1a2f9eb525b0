// Package gotoh provides a high-level API for affine-gap global alignment of
// protein sequences.
//
// This package exposes the aligner, its substitution models and the sequence
// readers through a small API for the common cases.
//
// Example usage:
//
//	model, err := gotoh.BuiltinMatrix("BLOSUM62", -11, -1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := gotoh.AlignSimilarity(model, "CQP", "CSQATP")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Format())
package gotoh

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/batch"
	"github.com/aria-lang/gotoh-go/internal/sequence"
	"github.com/aria-lang/gotoh-go/internal/stats"
	"github.com/aria-lang/gotoh-go/internal/submat"
)

// Re-export types for convenience
type (
	Sequence     = sequence.Sequence
	Model        = submat.Model
	Aligner      = alignment.Aligner
	Mode         = alignment.Mode
	Result       = alignment.Result
	Report       = batch.Report
	PairResult   = batch.PairResult
	BatchOptions = batch.Options

	MatrixError    = submat.MatrixError
	AlignmentError = alignment.AlignmentError
	SequenceError  = sequence.SequenceError
)

// Constants
const (
	Similarity = alignment.Similarity
	Distance   = alignment.Distance
	Gap        = alignment.Gap
)

// NewSequence creates a new protein sequence.
func NewSequence(residues string) (*Sequence, error) {
	return sequence.New(residues)
}

// NewSequenceWithID creates a new sequence with an identifier.
func NewSequenceWithID(residues, id string) (*Sequence, error) {
	return sequence.WithID(residues, id)
}

// ValidateSequence checks every residue of seq against the model's alphabet
// and reports the first unknown one with its position.
func ValidateSequence(seq *Sequence, model *Model) error {
	return sequence.Validate(seq.Residues, model.Alphabet())
}

// LoadMatrix reads a substitution model from a matrix file.
func LoadMatrix(filename string) (*Model, error) {
	return submat.ReadFile(filename)
}

// ParseMatrix reads a substitution model in matrix file format from r.
func ParseMatrix(r io.Reader) (*Model, error) {
	return submat.Parse(r)
}

// BuiltinMatrix returns one of the bundled models, such as BLOSUM62 or PAM250,
// with the given gap costs.
func BuiltinMatrix(name string, gapInit, gapExtend int) (*Model, error) {
	return submat.Builtin(name, gapInit, gapExtend)
}

// BuiltinMatrices lists the names accepted by BuiltinMatrix.
func BuiltinMatrices() []string {
	return submat.BuiltinNames()
}

// ParseMode parses "similarity" or "distance".
func ParseMode(name string) (Mode, error) {
	return alignment.ParseMode(name)
}

// NewAligner configures an aligner for mode and model.
func NewAligner(mode Mode, model *Model) (*Aligner, error) {
	return alignment.Configure(mode, model)
}

// AlignSimilarity globally aligns x and y maximising similarity.
func AlignSimilarity(model *Model, x, y string) (*Result, error) {
	return align(alignment.Similarity, model, x, y)
}

// AlignDistance globally aligns x and y minimising distance.
func AlignDistance(model *Model, x, y string) (*Result, error) {
	return align(alignment.Distance, model, x, y)
}

func align(mode Mode, model *Model, x, y string) (*Result, error) {
	aligner, err := alignment.Configure(mode, model)
	if err != nil {
		return nil, err
	}
	return aligner.Align(x, y)
}

// AllPairs aligns every unordered pair of sequences in parallel.
func AllPairs(ctx context.Context, sequences []*Sequence, aligner *Aligner, opts BatchOptions) (*Report, error) {
	return batch.AllPairs(ctx, sequences, aligner, opts)
}

// AgainstMany aligns query against each target in parallel.
func AgainstMany(ctx context.Context, query *Sequence, targets []*Sequence, aligner *Aligner,
	opts BatchOptions) (*Report, error) {
	return batch.AgainstMany(ctx, query, targets, aligner, opts)
}

// SequenceSetStats calculates length statistics for multiple sequences.
func SequenceSetStats(sequences []*Sequence) (*stats.SequenceSetStats, error) {
	return stats.FromSequences(sequences)
}

// ReadSequencePair reads two sequences, one per non-blank line.
func ReadSequencePair(r io.Reader) (*Sequence, *Sequence, error) {
	return sequence.ReadPair(r)
}

// ParseSequences reads sequences from r in the named format: "auto", "pair",
// "records" or "fasta".
func ParseSequences(r io.Reader, format string) ([]*Sequence, error) {
	f, err := sequence.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return sequence.Read(r, f)
}

// ReadSequences reads sequences from a file in the named format.
func ReadSequences(filename, format string) ([]*Sequence, error) {
	f, err := sequence.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return sequence.ReadFile(filename, f)
}

// ReadRecords reads grouped id/label/residue records from a file.
func ReadRecords(filename string) ([]*Sequence, error) {
	return sequence.ReadFile(filename, sequence.FormatRecords)
}

// ReadFASTA reads sequences from a FASTA file.
func ReadFASTA(filename string) ([]*Sequence, error) {
	return sequence.ReadFile(filename, sequence.FormatFASTA)
}

// ParseFASTA parses FASTA format from a reader.
func ParseFASTA(r io.Reader) ([]*Sequence, error) {
	return sequence.ReadFASTA(r)
}

// WriteFASTA writes sequences to a FASTA file.
func WriteFASTA(filename string, sequences []*Sequence) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	for _, seq := range sequences {
		_, err := file.WriteString(seq.ToFASTA())
		if err != nil {
			return fmt.Errorf("writing sequence: %w", err)
		}
	}

	return nil
}

// Version returns the gotoh version.
func Version() string {
	return "1.0.0"
}

// Info returns information about gotoh.
func Info() string {
	return fmt.Sprintf(`gotoh v%s - Affine-Gap Global Protein Alignment

Features:
  - Gotoh global alignment with affine gap costs
  - Similarity and distance scoring modes
  - NCBI-style substitution matrix files
  - Built-in BLOSUM and PAM matrices
  - Pair, record and FASTA sequence input
  - Parallel all-pairs and one-against-many batches
  - Text and JSON reports

For more information, see: https://github.com/aria-lang/gotoh-go
`, Version())
}
