package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/broker"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/qr"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/sheet"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func Test_Generate(t *testing.T) {
	out := t.TempDir()
	var buf bytes.Buffer
	g := &generator{
		URL:      "https://example.com/yeti",
		Folder:   "site",
		Out:      out,
		Versions: []int{3, 7},
		CArray:   true,
		Verbose:  true,
		Stdout:   &buf,
		Log:      quietLogger(),
	}
	manifest, err := g.Run()
	require.NoError(t, err)
	require.Len(t, manifest.Versions, 2)
	assert.Contains(t, buf.String(), "created")
	assert.Contains(t, buf.String(), "V3 decoded: https://example.com/yeti")
	assert.Contains(t, buf.String(), "page 0 column  0: ")

	for _, v := range manifest.Versions {
		assert.Equal(t, g.URL, v.Decoded)
		assert.Equal(t, qr.SizeOf(v.Version), v.Modules)
		for _, f := range []string{v.Image, v.Workbook, v.Table, v.Header} {
			assert.FileExists(t, f)
		}

		table, err := os.ReadFile(v.Table)
		require.NoError(t, err)
		assert.Equal(t, matrix.Pages-1, strings.Count(string(table), "\n"))
		fromTable, err := tableMatrix(string(table), 0)
		require.NoError(t, err)

		res, err := qr.Decode(v.Image)
		require.NoError(t, err)
		want, err := res.DisplayMatrix().Pad(matrix.Size)
		require.NoError(t, err)
		assert.Equal(t, want, fromTable)

		fromSheet, err := sheet.Import(v.Workbook)
		require.NoError(t, err)
		assert.Equal(t, res.DisplayMatrix(), fromSheet)
	}

	b, err := os.ReadFile(filepath.Join(out, "site", "manifest.yaml"))
	require.NoError(t, err)
	var stored Manifest
	require.NoError(t, yaml.Unmarshal(b, &stored))
	assert.Equal(t, manifest.RunID, stored.RunID)
	assert.Len(t, stored.Versions, 2)

	buf.Reset()
	g.Versions = []int{3}
	_, err = g.Run()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "already exists")
}

func Test_GenerateInvert(t *testing.T) {
	g := &generator{
		URL:      "https://example.com/yeti",
		Folder:   "site",
		Out:      t.TempDir(),
		Versions: []int{3},
		Invert:   true,
		Stdout:   &bytes.Buffer{},
		Log:      quietLogger(),
	}
	manifest, err := g.Run()
	require.NoError(t, err)
	v := manifest.Versions[0]

	table, err := os.ReadFile(v.Table)
	require.NoError(t, err)
	fromTable, err := tableMatrix(string(table), 0)
	require.NoError(t, err)

	res, err := qr.Decode(v.Image)
	require.NoError(t, err)
	symbol := res.DisplayMatrix()
	size := qr.SizeOf(3)
	for r := 0; r < matrix.Size; r++ {
		for c := 0; c < matrix.Size; c++ {
			if r < size && c < size {
				assert.Equal(t, symbol[r][c]^1, fromTable[r][c], "module %d,%d", r, c)
			} else {
				assert.Equal(t, uint8(1), fromTable[r][c], "padding %d,%d", r, c)
			}
		}
	}
	// Finder corner is dark, which inverts to 0.
	assert.Equal(t, uint8(0), fromTable[0][0])

	fromSheet, err := sheet.Import(v.Workbook)
	require.NoError(t, err)
	assert.Equal(t, symbol.Invert(), fromSheet)
}

func Test_GenerateTooLong(t *testing.T) {
	g := &generator{
		URL:      "https://example.com/" + strings.Repeat("a", 80),
		Folder:   "site",
		Out:      t.TempDir(),
		Versions: []int{3},
		Stdout:   &bytes.Buffer{},
		Log:      quietLogger(),
	}
	_, err := g.Run()
	require.ErrorIs(t, err, qr.ErrTooLong)
	assert.Contains(t, err.Error(), "--versions 5")

	g.Versions = []int{5}
	_, err = g.Run()
	assert.NoError(t, err)
}

func Test_GenerateRejectsVersion(t *testing.T) {
	g := &generator{
		URL:      "x",
		Folder:   "site",
		Out:      t.TempDir(),
		Versions: []int{3, 8},
		Stdout:   &bytes.Buffer{},
		Log:      quietLogger(),
	}
	_, err := g.Run()
	assert.Error(t, err)
}

func Test_TableMatrixSections(t *testing.T) {
	pages := make([][]byte, matrix.Pages)
	for i := range pages {
		pages[i] = make([]byte, matrix.Size)
	}
	pages[0][0] = 0x80
	tokens := matrix.FormatTokens(pages)

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteParsed(&buf, []sheet.Parsed{
		{Version: 3, Values: []string{"0x1"}},
		{Version: 4, Values: matrix.HexValues(pages)},
		{Version: 5, Values: []string{"0x2"}},
	}))
	assert.Contains(t, buf.String(), tokens)

	m, err := tableMatrix(buf.String(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), m[0][0])
	assert.Equal(t, uint8(0), m[1][0])

	_, err = tableMatrix(buf.String(), 3)
	assert.Error(t, err)
	_, err = tableMatrix(buf.String(), 6)
	assert.Error(t, err)
}

func Test_LoadBlocks(t *testing.T) {
	cfg := viper.New()
	blocks, err := loadBlocks(cfg)
	require.NoError(t, err)
	assert.Equal(t, sheet.DefaultBlocks, blocks)

	cfg.SetConfigType("yaml")
	require.NoError(t, cfg.ReadConfig(strings.NewReader(`
parse:
  blocks:
    - version: 3
      row_start: 10
      row_end: 20
      col_start: 5
      col_end: 50
`)))
	blocks, err = loadBlocks(cfg)
	require.NoError(t, err)
	assert.Equal(t, []sheet.Block{{Version: 3, RowStart: 10, RowEnd: 20, ColStart: 5, ColEnd: 50}}, blocks)

	require.NoError(t, cfg.ReadConfig(strings.NewReader(`
parse:
  blocks:
    - version: 3
      rows: 10
`)))
	_, err = loadBlocks(cfg)
	assert.Error(t, err)
}

func Test_LoadBrokerConfig(t *testing.T) {
	cfg := viper.New()
	bc, err := loadBrokerConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, broker.DefaultInterval, bc.Interval)

	cfg.SetConfigType("yaml")
	require.NoError(t, cfg.ReadConfig(strings.NewReader(`
broker:
  interval: 250ms
  min_firmware: 1.2.0
`)))
	bc, err = loadBrokerConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, bc.Interval)
	assert.Equal(t, broker.DefaultLinger, bc.Linger)
	assert.Equal(t, "1.2.0", bc.MinFirmware)
}

func Test_FirmwareCheck(t *testing.T) {
	log, hook := test.NewNullLogger()
	check := firmwareCheck(log, semver.New("1.2.0"))

	ok := &broker.Response{Command: broker.GetVersionID, Status: broker.StatusOK, Data: []byte{1, 3}}
	check(ok)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	old := &broker.Response{Command: broker.GetVersionID, Status: broker.StatusOK, Data: []byte{1, 1}}
	check(old)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	hook.Reset()
	check(&broker.Response{Command: broker.ClearID, Status: broker.StatusOK})
	assert.Nil(t, hook.LastEntry())
}

func Test_SequenceShortOutput(t *testing.T) {
	enc, err := newEncoder(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
	assert.Nil(t, enc)

	var buf bytes.Buffer
	enc, err = newEncoder(&buf, "short")
	require.NoError(t, err)
	require.NoError(t, enc.Encode(sequenceList{*broker.BootSequence()}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "GET_VERSION", lines[0])
	assert.Equal(t, "WRITE_LINE line=1 'YETI DISPLAY'", lines[4])

	buf.Reset()
	enc, err = newEncoder(&buf, "yaml")
	require.NoError(t, err)
	require.NoError(t, enc.Encode(sequenceList{*broker.BootSequence()}))
	assert.True(t, strings.HasPrefix(buf.String(), "name: display-boot\n"))
}

func Test_FilterPorts(t *testing.T) {
	assert.Equal(t,
		[]string{"/dev/ttyUSB0", "/dev/ttyACM1"},
		linuxFilterPaths([]string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyACM1", "/dev/random"}))
	assert.Equal(t,
		[]string{"/dev/cu.usbserial-1", "/dev/tty.other"},
		darwinFilterPaths([]string{"/dev/cu.usbserial-1", "/dev/tty.usbserial-1", "/dev/tty.other", "/dev/cu.Bluetooth-Incoming-Port"}))
}
