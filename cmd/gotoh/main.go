// Command gotoh provides a CLI for affine-gap global protein alignment.
//
// Usage:
//
//	gotoh [command] [options]
//
// Commands:
//
//	align       Align two sequences
//	batch       Align many sequences, all pairs or one query against the rest
//	matrix      Show a substitution matrix
//	version     Show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/aria-lang/gotoh-go/internal/report"
	"github.com/aria-lang/gotoh-go/pkg/gotoh"
	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "align":
		alignCmd(os.Args[2:])
	case "batch":
		batchCmd(os.Args[2:])
	case "matrix":
		matrixCmd(os.Args[2:])
	case "version":
		fmt.Println(gotoh.Info())
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gotoh - Affine-Gap Global Protein Alignment

Usage:
  gotoh <command> [options]

Commands:
  align     Align two sequences
  batch     Align many sequences (all pairs, or -query against the rest)
  matrix    Show a substitution matrix or score a residue pair
  version   Show version information
  help      Show this help message

Use "gotoh <command> -h" for more information about a command.`)
}

// modelFlags selects the substitution model.
type modelFlags struct {
	file      *string
	builtin   *string
	gapInit   *int
	gapExtend *int
}

func addModelFlags(fs *flag.FlagSet) *modelFlags {
	return &modelFlags{
		file:      fs.String("matrix", "", "Substitution matrix file"),
		builtin:   fs.String("builtin", "BLOSUM62", "Built-in matrix: "+strings.Join(gotoh.BuiltinMatrices(), ", ")),
		gapInit:   fs.Int("gap-init", -11, "Gap initiation cost for built-in matrices"),
		gapExtend: fs.Int("gap-extend", -1, "Gap extension cost for built-in matrices"),
	}
}

func (m *modelFlags) load() (*gotoh.Model, error) {
	if *m.file != "" {
		return gotoh.LoadMatrix(*m.file)
	}
	return gotoh.BuiltinMatrix(*m.builtin, *m.gapInit, *m.gapExtend)
}

// runFlags are shared by align and batch.
type runFlags struct {
	model   *modelFlags
	mode    *string
	format  *string
	width   *int
	json    *bool
	verbose *bool
	cpuProf *bool
	memProf *bool
}

func addRunFlags(fs *flag.FlagSet) *runFlags {
	return &runFlags{
		model:   addModelFlags(fs),
		mode:    fs.String("mode", "similarity", "Scoring mode: similarity or distance"),
		format:  fs.String("format", "auto", "Input format: auto, pair, records or fasta"),
		width:   fs.Int("width", report.DefaultWidth, "Alignment columns per block"),
		json:    fs.Bool("json", false, "Write JSON instead of text"),
		verbose: fs.Bool("v", false, "Log run sizes to stderr"),
		cpuProf: fs.Bool("cpuprofile", false, "Write a CPU profile to the current directory"),
		memProf: fs.Bool("memprofile", false, "Write a memory profile to the current directory"),
	}
}

func (f *runFlags) aligner() *gotoh.Aligner {
	model, err := f.model.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading matrix: %v\n", err)
		os.Exit(1)
	}
	mode, err := gotoh.ParseMode(*f.mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	aligner, err := gotoh.NewAligner(mode, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring aligner: %v\n", err)
		os.Exit(1)
	}
	if *f.verbose {
		log.Printf("Using %s", model)
	}
	return aligner
}

// profiler starts the requested profile around the alignment work.
func (f *runFlags) profiler() interface{ Stop() } {
	switch {
	case *f.cpuProf:
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case *f.memProf:
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return noProfile{}
	}
}

type noProfile struct{}

func (noProfile) Stop() {}

// validate exits when a sequence holds a residue the model cannot score.
func validate(model *gotoh.Model, sequences ...*gotoh.Sequence) {
	for _, s := range sequences {
		if err := gotoh.ValidateSequence(s, model); err != nil {
			fmt.Fprintf(os.Stderr, "Error in sequence %s: %v\n", s.Name(), err)
			os.Exit(1)
		}
	}
}

func readSequences(file, format string) []*gotoh.Sequence {
	var sequences []*gotoh.Sequence
	var err error
	if file == "-" {
		sequences, err = gotoh.ParseSequences(os.Stdin, format)
	} else {
		sequences, err = gotoh.ReadSequences(file, format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	return sequences
}

func alignCmd(args []string) {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	x := fs.String("x", "", "First sequence (X)")
	y := fs.String("y", "", "Second sequence (Y)")
	file := fs.String("file", "", "Sequence file, or - for stdin; the first two sequences are aligned")
	rf := addRunFlags(fs)
	fs.Parse(args)

	var s1, s2 *gotoh.Sequence
	var err error

	switch {
	case *file != "":
		sequences := readSequences(*file, *rf.format)
		if len(sequences) < 2 {
			fmt.Fprintln(os.Stderr, "Error: at least two sequences are required")
			os.Exit(1)
		}
		if len(sequences) > 2 && *rf.verbose {
			log.Printf("Aligning the first two of %d sequences", len(sequences))
		}
		s1, s2 = sequences[0], sequences[1]
	case *x != "" && *y != "":
		if s1, err = gotoh.NewSequence(*x); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating sequence X: %v\n", err)
			os.Exit(1)
		}
		if s2, err = gotoh.NewSequence(*y); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating sequence Y: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: Either -file or both -x and -y are required")
		fs.Usage()
		os.Exit(1)
	}

	aligner := rf.aligner()
	validate(aligner.Model(), s1, s2)
	if *rf.verbose {
		log.Printf("Filling %s", report.Footprint(s1.Len(), s2.Len()))
	}

	prof := rf.profiler()
	start := time.Now()
	result, err := aligner.Align(s1.Residues, s2.Residues)
	elapsed := time.Since(start)
	prof.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error aligning sequences: %v\n", err)
		os.Exit(1)
	}
	if *rf.verbose {
		log.Printf("Aligned in %s", elapsed)
	}

	if *rf.json {
		err = report.WriteJSON(os.Stdout, result, true)
	} else {
		fmt.Printf("# %s vs %s\n\n", s1.Name(), s2.Name())
		err = report.WriteAlignment(os.Stdout, result, *rf.width)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func batchCmd(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	file := fs.String("file", "", "Sequence file, or - for stdin")
	query := fs.String("query", "", "Name of the sequence to align against all others")
	alignments := fs.Bool("alignments", false, "Print every alignment after the summary")
	table := fs.Bool("table", false, "Print the all-pairs score table")
	batches := fs.Int("batches", 0, "Number of parallel batches (0 chooses from GOMAXPROCS)")
	progress := fs.Bool("progress", false, "Show a progress bar on stderr")
	histogram := fs.Int("histogram", 0, "Print score and length histograms with this many bins")
	rf := addRunFlags(fs)
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		os.Exit(1)
	}
	if *batches < 0 {
		fmt.Fprintf(os.Stderr, "Error: -batches must not be negative, got %d\n", *batches)
		os.Exit(1)
	}

	sequences := readSequences(*file, *rf.format)
	aligner := rf.aligner()
	validate(aligner.Model(), sequences...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	queryIdx := -1
	total := len(sequences) * (len(sequences) - 1) / 2
	if *query != "" {
		for i, s := range sequences {
			if s.Name() == *query {
				queryIdx = i
				break
			}
		}
		if queryIdx < 0 {
			fmt.Fprintf(os.Stderr, "Error: no sequence named %q\n", *query)
			os.Exit(1)
		}
		total = len(sequences) - 1
	}

	if *rf.verbose {
		var cells uint64
		for i := range sequences {
			for j := i + 1; j < len(sequences); j++ {
				if queryIdx >= 0 && i != queryIdx && j != queryIdx {
					continue
				}
				cells += 3 * uint64(sequences[i].Len()+1) * uint64(sequences[j].Len()+1)
			}
		}
		log.Printf("Aligning %d pairs of %d sequences, up to %s DP cells",
			total, len(sequences), humanize.Comma(int64(cells)))
	}

	opts := gotoh.BatchOptions{Batches: *batches}
	var bar *mpb.Bar
	var pbs *mpb.Progress
	if *progress && total > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("aligned pairs: ", decor.WC{W: len("aligned pairs: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 1024),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)

		var mu sync.Mutex
		last := time.Now()
		opts.Progress = func(done, total int) {
			mu.Lock()
			now := time.Now()
			d := now.Sub(last)
			last = now
			mu.Unlock()
			bar.EwmaIncrBy(1, d)
		}
	}

	prof := rf.profiler()
	var rep *gotoh.Report
	var err error
	if queryIdx >= 0 {
		targets := make([]*gotoh.Sequence, 0, len(sequences)-1)
		targets = append(targets, sequences[:queryIdx]...)
		targets = append(targets, sequences[queryIdx+1:]...)
		rep, err = gotoh.AgainstMany(ctx, sequences[queryIdx], targets, aligner, opts)
	} else {
		rep, err = gotoh.AllPairs(ctx, sequences, aligner, opts)
	}
	prof.Stop()

	if pbs != nil {
		if err != nil {
			bar.Abort(false)
		}
		pbs.Wait()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running batch: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *rf.json:
		err = report.WriteJSON(os.Stdout, rep, true)
	case *table:
		err = report.WriteScoreTable(os.Stdout, rep)
	default:
		err = report.WriteText(os.Stdout, rep, report.Options{Width: *rf.width, Alignments: *alignments, Histogram: *histogram})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func matrixCmd(args []string) {
	fs := flag.NewFlagSet("matrix", flag.ExitOnError)
	list := fs.Bool("list", false, "List the built-in matrices")
	pair := fs.String("pair", "", "Two residues to score, e.g. CS")
	mf := addModelFlags(fs)
	fs.Parse(args)

	if *list {
		for _, name := range gotoh.BuiltinMatrices() {
			fmt.Println(name)
		}
		return
	}

	model, err := mf.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading matrix: %v\n", err)
		os.Exit(1)
	}

	if *pair != "" {
		if len(*pair) != 2 {
			fmt.Fprintln(os.Stderr, "Error: -pair takes exactly two residues")
			os.Exit(1)
		}
		a, b := (*pair)[0], (*pair)[1]
		sim, err := model.Similarity(a, b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		dist, _ := model.Distance(a, b)
		fmt.Printf("%c/%c  similarity: %d  distance: %g\n", a, b, sim, dist)
		return
	}

	gi, ge := model.GapCosts()
	fmt.Println(model.Name())
	symbols := model.Alphabet()
	fmt.Print(" ")
	for i := 0; i < len(symbols); i++ {
		fmt.Printf(" %3c", symbols[i])
	}
	fmt.Println()
	for i, row := range model.SimilarityTable() {
		fmt.Printf("%c", symbols[i])
		for _, v := range row {
			fmt.Printf(" %3d", v)
		}
		fmt.Println()
	}
	fmt.Printf("Gap_initiation = %d\n", gi)
	fmt.Printf("Gap_extension = %d\n", ge)
}
