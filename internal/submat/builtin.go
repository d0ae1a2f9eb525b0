package submat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biogo/biogo/align/matrix"
	"github.com/biogo/biogo/alphabet"
	"gonum.org/v1/gonum/mat"
)

// StandardSymbols are the amino-acid codes, ambiguity codes and stop symbol
// covered by the built-in matrices.
const StandardSymbols = "ARNDCQEGHILKMFPSTWYVBZX*"

var builtins = map[string][][]int{
	"BLOSUM45": matrix.BLOSUM45,
	"BLOSUM50": matrix.BLOSUM50,
	"BLOSUM62": matrix.BLOSUM62,
	"BLOSUM80": matrix.BLOSUM80,
	"BLOSUM90": matrix.BLOSUM90,
	"PAM250":   matrix.PAM250,
}

// BuiltinNames lists the matrices available through Builtin.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a model backed by one of biogo's substitution matrices,
// restricted to StandardSymbols, with the given gap costs.
func Builtin(name string, gapInit, gapExtend int) (*Model, error) {
	key := strings.ToUpper(name)
	table, ok := builtins[key]
	if !ok {
		return nil, fmt.Errorf("unknown built-in matrix %q (available: %s)",
			name, strings.Join(BuiltinNames(), ", "))
	}

	symbols := make([]byte, 0, len(StandardSymbols))
	rows := make([]int, 0, len(StandardSymbols))
	for i := 0; i < len(StandardSymbols); i++ {
		idx := alphabet.Protein.IndexOf(alphabet.Letter(StandardSymbols[i]))
		if idx < 0 || idx >= len(table) {
			continue
		}
		symbols = append(symbols, StandardSymbols[i])
		rows = append(rows, idx)
	}

	sim := mat.NewSymDense(len(rows), nil)
	for i, ri := range rows {
		for j := i; j < len(rows); j++ {
			sim.SetSym(i, j, float64(table[ri][rows[j]]))
		}
	}

	return newModel(key, symbols, sim, gapInit, gapExtend), nil
}
