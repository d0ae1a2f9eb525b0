package submat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aminoAcids = "ARNDCQEGHILKMFPSTWYV"

func loadBLOSUM62(t testing.TB) *Model {
	t.Helper()
	m, err := ReadFile("testdata/blosum62.txt")
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		symbols string
		scores  [][]int
		wantErr bool
	}{
		{
			name:    "valid",
			symbols: "AC",
			scores:  [][]int{{4, 0}, {0, 9}},
		},
		{
			name:    "empty alphabet",
			symbols: "",
			wantErr: true,
		},
		{
			name:    "duplicate symbol",
			symbols: "AA",
			scores:  [][]int{{4, 0}, {0, 4}},
			wantErr: true,
		},
		{
			name:    "asymmetric",
			symbols: "AC",
			scores:  [][]int{{4, 1}, {0, 9}},
			wantErr: true,
		},
		{
			name:    "short row",
			symbols: "AC",
			scores:  [][]int{{4}, {0, 9}},
			wantErr: true,
		},
		{
			name:    "missing row",
			symbols: "AC",
			scores:  [][]int{{4, 0}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New("TEST", tt.symbols, tt.scores, -5, -1)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, &MalformedMatrixError{}, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "TEST", m.Name())
			assert.Equal(t, tt.symbols, m.Alphabet())
			assert.Equal(t, tt.scores, m.SimilarityTable())
		})
	}
}

func TestSimilarity(t *testing.T) {
	m := loadBLOSUM62(t)

	t.Run("known scores", func(t *testing.T) {
		cases := []struct {
			a, b byte
			want int
		}{
			{'A', 'A', 4},
			{'C', 'C', 9},
			{'W', 'W', 11},
			{'C', 'S', -1},
			{'W', 'C', -2},
			{'*', '*', 1},
			{'A', '*', -4},
		}
		for _, c := range cases {
			got, err := m.Similarity(c.a, c.b)
			require.NoError(t, err)
			assert.Equal(t, c.want, got, "%c/%c", c.a, c.b)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		alphabet := m.Alphabet()
		for i := 0; i < len(alphabet); i++ {
			for j := 0; j < len(alphabet); j++ {
				ab, err := m.Similarity(alphabet[i], alphabet[j])
				require.NoError(t, err)
				ba, err := m.Similarity(alphabet[j], alphabet[i])
				require.NoError(t, err)
				assert.Equal(t, ab, ba)
			}
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := m.Similarity('A', 'J')
		require.Error(t, err)
		var symErr *UnknownSymbolError
		require.ErrorAs(t, err, &symErr)
		assert.Equal(t, byte('J'), symErr.Symbol)
		assert.Implements(t, (*MatrixError)(nil), err)

		_, err = m.Similarity('-', 'A')
		require.ErrorAs(t, err, &symErr)
		assert.Equal(t, byte('-'), symErr.Symbol)
	})
}

func TestDistance(t *testing.T) {
	m := loadBLOSUM62(t)

	t.Run("self distance is zero", func(t *testing.T) {
		for i := 0; i < m.Size(); i++ {
			c := m.Alphabet()[i]
			d, err := m.Distance(c, c)
			require.NoError(t, err)
			assert.Equal(t, 0.0, d, "%c", c)
		}
	})

	t.Run("derived from similarity", func(t *testing.T) {
		cases := []struct {
			a, b byte
			want float64
		}{
			{'C', 'S', 7.5}, // (9 + 4) / 2 - (-1)
			{'W', 'C', 12},  // (11 + 9) / 2 - (-2)
			{'A', 'R', 5.5}, // (4 + 5) / 2 - (-1)
			{'Q', 'E', 3},   // (5 + 5) / 2 - 2
		}
		for _, c := range cases {
			got, err := m.Distance(c.a, c.b)
			require.NoError(t, err)
			assert.Equal(t, c.want, got, "%c/%c", c.a, c.b)

			rev, err := m.Distance(c.b, c.a)
			require.NoError(t, err)
			assert.Equal(t, got, rev)
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := m.Distance('B', 'U')
		assert.IsType(t, &UnknownSymbolError{}, err)
	})
}

func TestModelAccessors(t *testing.T) {
	m := loadBLOSUM62(t)

	assert.Equal(t, "BLOSUM62", m.Name())
	assert.Equal(t, 24, m.Size())
	assert.Equal(t, StandardSymbols, m.Alphabet())
	assert.True(t, m.Contains('W'))
	assert.False(t, m.Contains('J'))

	gi, ge := m.GapCosts()
	assert.Equal(t, -11, gi)
	assert.Equal(t, -1, ge)

	assert.Contains(t, m.String(), "BLOSUM62")
}

func TestWithGapCosts(t *testing.T) {
	m := loadBLOSUM62(t)
	c := m.WithGapCosts(-8, -2)

	gi, ge := c.GapCosts()
	assert.Equal(t, -8, gi)
	assert.Equal(t, -2, ge)
	assert.Equal(t, "BLOSUM62", c.Name())
	assert.Equal(t, m.Alphabet(), c.Alphabet())

	d, err := c.Distance('C', 'S')
	require.NoError(t, err)
	assert.Equal(t, 7.5, d)

	gi, ge = m.GapCosts()
	assert.Equal(t, -11, gi)
	assert.Equal(t, -1, ge)
}

func TestBuiltin(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		assert.Equal(t,
			[]string{"BLOSUM45", "BLOSUM50", "BLOSUM62", "BLOSUM80", "BLOSUM90", "PAM250"},
			BuiltinNames())
	})

	t.Run("matches parsed BLOSUM62", func(t *testing.T) {
		parsed := loadBLOSUM62(t)
		builtin, err := Builtin("blosum62", -11, -1)
		require.NoError(t, err)

		assert.Equal(t, "BLOSUM62", builtin.Name())
		for i := 0; i < len(aminoAcids); i++ {
			for j := 0; j < len(aminoAcids); j++ {
				a, b := aminoAcids[i], aminoAcids[j]
				want, err := parsed.Similarity(a, b)
				require.NoError(t, err)
				got, err := builtin.Similarity(a, b)
				require.NoError(t, err)
				assert.Equal(t, want, got, "%c/%c", a, b)
			}
		}
	})

	t.Run("gap costs passed through", func(t *testing.T) {
		m, err := Builtin("PAM250", -10, -2)
		require.NoError(t, err)
		gi, ge := m.GapCosts()
		assert.Equal(t, -10, gi)
		assert.Equal(t, -2, ge)
	})

	t.Run("self distance is zero", func(t *testing.T) {
		for _, name := range BuiltinNames() {
			m, err := Builtin(name, -11, -1)
			require.NoError(t, err)
			for i := 0; i < m.Size(); i++ {
				c := m.Alphabet()[i]
				d, err := m.Distance(c, c)
				require.NoError(t, err)
				assert.Equal(t, 0.0, d, "%s %c", name, c)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Builtin("BLOSUM100", -11, -1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BLOSUM62")
	})
}

func BenchmarkDistance(b *testing.B) {
	m := loadBLOSUM62(b)
	for i := 0; i < b.N; i++ {
		_, _ = m.Distance(aminoAcids[i%20], aminoAcids[(i*7)%20])
	}
}
