package matrix

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(rows, cols int, v uint8) Matrix {
	m := New(rows, cols)
	for r := range m {
		for c := range m[r] {
			m[r][c] = v
		}
	}
	return m
}

func Test_Pack(t *testing.T) {
	tests := []struct {
		name  string
		in    Matrix
		check func(t *testing.T, pages [][]byte)
	}{
		{
			name: "all dark",
			in:   filled(Size, Size, 1),
			check: func(t *testing.T, pages [][]byte) {
				for g := 0; g < Pages-1; g++ {
					for c := 0; c < Size; c++ {
						assert.Equal(t, byte(0xff), pages[g][c])
					}
				}
				// Rows 40..44 plus three padding bits.
				for c := 0; c < Size; c++ {
					assert.Equal(t, byte(0xf8), pages[Pages-1][c])
				}
			},
		},
		{
			name: "checker corner",
			in: Matrix{
				{1, 0, 1},
				{0, 1, 0},
				{1, 0, 1},
			},
			check: func(t *testing.T, pages [][]byte) {
				assert.Equal(t, []byte{0xa0, 0x40, 0xa0, 0x00}, pages[0][:4])
				for g := 1; g < Pages; g++ {
					assert.Equal(t, make([]byte, Size), pages[g])
				}
			},
		},
		{
			name: "bottom row only",
			in: func() Matrix {
				m := New(Size, Size)
				m[Size-1][7] = 1
				return m
			}(),
			check: func(t *testing.T, pages [][]byte) {
				// Row 44 is bit 4 of the last page, counting from the MSB.
				assert.Equal(t, byte(0x08), pages[Pages-1][7])
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pages, err := test.in.Pack()
			require.NoError(t, err)
			require.Len(t, pages, Pages)
			for _, page := range pages {
				require.Len(t, page, Size)
			}
			test.check(t, pages)
		})
	}
}

func Test_PackTooLarge(t *testing.T) {
	_, err := New(Size+4, Size+4).Pack()
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Matrix{{1, 0}, {1}}.Pad(Size)
	assert.ErrorIs(t, err, ErrShape)
}

func Test_UnpackRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for _, size := range []int{29, 33, 37, 41, 45} {
		m := New(size, size)
		for r := range m {
			for c := range m[r] {
				m[r][c] = uint8(rnd.Intn(2))
			}
		}
		pages, err := m.Pack()
		require.NoError(t, err)

		back, err := Unpack(pages)
		require.NoError(t, err)

		padded, err := m.Pad(Size)
		require.NoError(t, err)
		assert.Equal(t, padded, back, "size %d", size)
	}
}

func Test_TransposeInvert(t *testing.T) {
	m := Matrix{
		{1, 1, 0},
		{0, 0, 1},
	}
	assert.Equal(t, Matrix{{1, 0}, {1, 0}, {0, 1}}, m.Transpose())
	assert.Equal(t, Matrix{{0, 0, 1}, {1, 1, 0}}, m.Invert())
}

func Test_FromBits(t *testing.T) {
	m := FromBits(3, 2, func(x, y int) bool { return x == 2 && y == 1 })
	assert.Equal(t, Matrix{{0, 0, 0}, {0, 0, 1}}, m)
}

func Test_Join(t *testing.T) {
	tests := []struct {
		in      []string
		perLine int
		out     string
	}{
		{in: nil, perLine: 2, out: ""},
		{in: []string{"0x0"}, perLine: 2, out: "MSB2LSB(0x0)"},
		{
			in:      []string{"0x0", "0x1", "0x2"},
			perLine: 2,
			out:     "MSB2LSB(0x0), MSB2LSB(0x1), \nMSB2LSB(0x2)",
		},
		{
			in:      []string{"0x0", "0x1f"},
			perLine: 2,
			out:     "MSB2LSB(0x0), MSB2LSB(0x1f)",
		},
	}
	for _, test := range tests {
		t.Run(test.out, func(t *testing.T) {
			assert.Equal(t, test.out, Join(test.in, test.perLine))
		})
	}
}

func Test_FormatTokens(t *testing.T) {
	pages, err := filled(Size, Size, 1).Pack()
	require.NoError(t, err)

	out := FormatTokens(pages)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, Pages)
	for _, line := range lines[:Pages-1] {
		assert.True(t, strings.HasSuffix(line, "), "), line)
		assert.Equal(t, Size, strings.Count(line, Macro))
		assert.True(t, strings.HasPrefix(line, "MSB2LSB(0xff)"))
	}
	last := lines[Pages-1]
	assert.True(t, strings.HasSuffix(last, "MSB2LSB(0xf8)"), last)

	values, err := ParseTokens(out)
	require.NoError(t, err)
	back, err := SplitPages(values)
	require.NoError(t, err)
	assert.Equal(t, pages, back)
}

func Test_Hex(t *testing.T) {
	assert.Equal(t, "0x0", Hex(0))
	assert.Equal(t, "0xa", Hex(10))
	assert.Equal(t, "0xff", Hex(255))
	assert.Equal(t, "00011111", BitString(0x1f))
}

func Test_ParseTokensInvalid(t *testing.T) {
	_, err := ParseTokens("MSB2LSB(0x1ff)")
	assert.Error(t, err)

	values, err := ParseTokens("junk MSB2LSB( 0XAB ) more")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab}, values)

	_, err = SplitPages(values)
	assert.Error(t, err)
}

func Test_FormatCArray(t *testing.T) {
	pages, err := New(1, 1).Pack()
	require.NoError(t, err)
	out := FormatCArray("qr_code_myq_v3", pages)
	assert.True(t, strings.HasPrefix(out, "const qr_code_t qr_code_myq_v3[] = {\n"))
	assert.Equal(t, Pages*Size, strings.Count(out, "MSB2LSB(0x0)"))
	assert.True(t, strings.HasSuffix(out, "};\n"))
}
