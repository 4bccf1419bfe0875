package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	log, closer := New(Options{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.NoError(t, closer.Close())

	log, closer = New(Options{Verbose: true})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.NoError(t, closer.Close())
}

func Test_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrlcd.log")
	log, closer := New(Options{File: path, Verbose: true})
	log.WithField("pn", "0x01").Debug("sent request")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sent request")
	assert.Contains(t, string(content), "pn=0x01")
}
