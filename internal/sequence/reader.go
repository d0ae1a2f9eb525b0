package sequence

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Format names a sequence source layout.
type Format string

const (
	// FormatAuto picks FASTA, records or pair from the content.
	FormatAuto Format = "auto"
	// FormatPair is two sequences on the first two non-blank lines.
	FormatPair Format = "pair"
	// FormatRecords is identifier, "protein - species" label, then residues
	// up to a line ending in '*'.
	FormatRecords Format = "records"
	// FormatFASTA is standard FASTA.
	FormatFASTA Format = "fasta"
)

const (
	labelSeparator = " - "
	recordEnd      = "*"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatAuto, FormatPair, FormatRecords, FormatFASTA:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown sequence format %q", name)
	}
}

// lines yields trimmed non-blank lines with their 1-based line number.
type lines struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

func newLines(r io.Reader) *lines {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lines{scanner: scanner}
}

func (l *lines) next() (string, bool) {
	for l.scanner.Scan() {
		l.line++
		if text := strings.TrimSpace(l.scanner.Text()); text != "" {
			return text, true
		}
	}
	if err := l.scanner.Err(); err != nil {
		l.err = fmt.Errorf("reading sequences: %w", err)
	}
	return "", false
}

// fail returns the read error if there was one, otherwise a
// MalformedRecordError at the current line.
func (l *lines) fail(format string, args ...interface{}) error {
	if l.err != nil {
		return l.err
	}
	return &MalformedRecordError{Line: l.line, Reason: fmt.Sprintf(format, args...)}
}

// ReadPair reads the first two non-blank lines as two sequences.
//
// Aria equivalent:
//
//	fn read_pair(source: Reader) -> Result<(Sequence, Sequence), SequenceError>
//	  ensures result.is_ok() implies result.unwrap().0.len() > 0
func ReadPair(r io.Reader) (*Sequence, *Sequence, error) {
	l := newLines(r)

	var pair [2]*Sequence
	for k := range pair {
		text, ok := l.next()
		if !ok {
			return nil, nil, l.fail("expected two sequences, found %d", k)
		}
		seq, err := New(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return nil, nil, err
		}
		pair[k] = seq
	}
	return pair[0], pair[1], nil
}

// ReadRecords reads grouped records:
//
//	HBA_HUMAN
//	hemoglobin alpha - Homo sapiens
//	VLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPTTKTYFPHF
//	DLSHGSAQVKGHGKKVADALTNAVAHVDDMPNALSALSDLHAHKL*
//
// Residue lines are joined with whitespace removed until a line ending in '*'.
func ReadRecords(r io.Reader) ([]*Sequence, error) {
	l := newLines(r)
	var records []*Sequence

	for {
		id, ok := l.next()
		if !ok {
			break
		}

		label, ok := l.next()
		if !ok {
			return nil, l.fail("record %q has no label line", id)
		}
		protein, species, found := strings.Cut(label, labelSeparator)
		if !found {
			return nil, l.fail("record %q: label %q is not 'protein - species'", id, label)
		}

		var residues strings.Builder
		for {
			text, ok := l.next()
			if !ok {
				return nil, l.fail("record %q is not terminated by '%s'", id, recordEnd)
			}
			done := strings.HasSuffix(text, recordEnd)
			residues.WriteString(strings.Join(strings.Fields(strings.TrimSuffix(text, recordEnd)), ""))
			if done {
				break
			}
		}

		seq, err := New(residues.String())
		if err != nil {
			return nil, l.fail("record %q has no residues", id)
		}
		seq.ID = id
		seq.Protein = strings.TrimSpace(protein)
		seq.Species = strings.TrimSpace(species)
		records = append(records, seq)
	}

	if l.err != nil {
		return nil, l.err
	}
	if len(records) == 0 {
		return nil, &MalformedRecordError{Reason: "no records found"}
	}
	return records, nil
}

// ReadFASTA reads protein FASTA. A description of the form
// "protein - species" fills both fields; any other description is kept as
// the protein name.
func ReadFASTA(r io.Reader) ([]*Sequence, error) {
	template := linear.NewSeq("", nil, alphabet.Protein)
	reader := fasta.NewReader(r, template)

	var seqs []*Sequence
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading FASTA: %w", err)
		}

		l, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("reading FASTA: unexpected sequence type %T", s)
		}
		seq, err := New(string(alphabet.LettersToBytes(l.Seq)))
		if err != nil {
			return nil, &MalformedRecordError{Reason: fmt.Sprintf("FASTA record %q has no residues", l.Name())}
		}
		seq.ID = l.Name()
		desc := strings.TrimSpace(l.Description())
		if protein, species, found := strings.Cut(desc, labelSeparator); found {
			seq.Protein = strings.TrimSpace(protein)
			seq.Species = strings.TrimSpace(species)
		} else {
			seq.Protein = desc
		}
		seqs = append(seqs, seq)
	}

	if len(seqs) == 0 {
		return nil, &MalformedRecordError{Reason: "no FASTA records found"}
	}
	return seqs, nil
}

// Detect guesses the format of data.
func Detect(data []byte) Format {
	l := newLines(bytes.NewReader(data))
	first, ok := l.next()
	if !ok {
		return FormatPair
	}
	if strings.HasPrefix(first, ">") {
		return FormatFASTA
	}
	for {
		text, ok := l.next()
		if !ok {
			return FormatPair
		}
		if strings.Contains(text, labelSeparator) || strings.HasSuffix(text, recordEnd) {
			return FormatRecords
		}
	}
}

// Read parses r in the given format. FormatPair yields two sequences.
func Read(r io.Reader, format Format) ([]*Sequence, error) {
	if format == FormatAuto || format == "" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading sequences: %w", err)
		}
		format = Detect(data)
		r = bytes.NewReader(data)
	}

	switch format {
	case FormatPair:
		x, y, err := ReadPair(r)
		if err != nil {
			return nil, err
		}
		return []*Sequence{x, y}, nil
	case FormatRecords:
		return ReadRecords(r)
	case FormatFASTA:
		return ReadFASTA(r)
	default:
		return nil, fmt.Errorf("unknown sequence format %q", format)
	}
}

// ReadFile opens path and parses it in the given format.
func ReadFile(path string, format Format) ([]*Sequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return Read(file, format)
}
