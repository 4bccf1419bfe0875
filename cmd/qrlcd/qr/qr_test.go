package qr

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/setup?id=1234"

func Test_SizeOf(t *testing.T) {
	for _, v := range Versions {
		size := SizeOf(v)
		back, err := VersionFromSize(size)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
	assert.Equal(t, 45, SizeOf(MaxVersion))

	_, err := VersionFromSize(30)
	assert.Error(t, err)
}

func Test_CheckVersion(t *testing.T) {
	assert.Error(t, CheckVersion(2))
	assert.Error(t, CheckVersion(8))
	assert.NoError(t, CheckVersion(5))
	assert.Error(t, Generate(testURL, 9, filepath.Join(t.TempDir(), "x.png"), DefaultOptions()))
}

func Test_GenerateTooLong(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 80)
	path := filepath.Join(t.TempDir(), "qr.png")

	err := Generate(long, 3, path, DefaultOptions())
	assert.ErrorIs(t, err, ErrTooLong)
	assert.NoFileExists(t, path)

	v, err := FitVersion(long)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	require.NoError(t, Generate(long, v, path, DefaultOptions()))
	res, err := Decode(path)
	require.NoError(t, err)
	assert.Equal(t, long, res.Text)

	exact := strings.Repeat("b", Capacity(3))
	assert.NoError(t, Generate(exact, 3, path, DefaultOptions()))
	assert.ErrorIs(t, Generate(exact+"b", 3, path, DefaultOptions()), ErrTooLong)

	_, err = FitVersion(strings.Repeat("c", Capacity(MaxVersion)+1))
	assert.ErrorIs(t, err, ErrTooLong)
}

func Test_GenerateDecode(t *testing.T) {
	dir := t.TempDir()
	for _, v := range Versions {
		path := filepath.Join(dir, "qr.png")
		require.NoError(t, Generate(testURL, v, path, DefaultOptions()))

		res, err := Decode(path)
		require.NoError(t, err)
		assert.Equal(t, testURL, res.Text)
		assert.Equal(t, v, res.Version)
		require.Equal(t, SizeOf(v), res.Grid.Rows())
		require.Equal(t, SizeOf(v), res.Grid.Cols())

		// Top-left finder pattern: dark outer ring, light ring, dark core.
		for i := 0; i < 7; i++ {
			assert.Equal(t, uint8(1), res.Grid[0][i])
			assert.Equal(t, uint8(1), res.Grid[i][0])
		}
		assert.Equal(t, uint8(0), res.Grid[1][1])
		assert.Equal(t, uint8(1), res.Grid[3][3])
		assert.NotEmpty(t, res.Points)

		assert.Equal(t, res.Grid.Transpose(), res.DisplayMatrix())
	}
}

func Test_DecodeMissing(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func Test_RenderDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")
	require.NoError(t, Generate(testURL, 4, path, DefaultOptions()))
	res, err := Decode(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, res.Grid, 10, 4))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, (SizeOf(4)+8)*10, img.Bounds().Dx())

	again, err := DecodeImage(img)
	require.NoError(t, err)
	assert.Equal(t, testURL, again.Text)
	assert.Equal(t, res.Grid, again.Grid)
}
