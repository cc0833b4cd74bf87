package decompiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg := Defaults
	err := LoadConfig(strings.NewReader(`
EnableForLoops = false
VerifyPasses = true
Workers = 4
WarnEvery = 10
`), &cfg)
	require.NoError(t, err)
	assert.False(t, cfg.EnableForLoops)
	assert.True(t, cfg.VerifyPasses)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, uint32(10), cfg.WarnEvery)
	// Untouched keys keep their defaults.
	assert.True(t, cfg.EnablePatterns)
	assert.Equal(t, Defaults.FailureCacheSize, cfg.FailureCacheSize)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	cfg := Defaults
	err := LoadConfig(strings.NewReader("EnableGotos = true\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EnableGotos")
}

func TestConfigRoundTrip(t *testing.T) {
	in := Defaults
	in.TraceLabels = true
	in.Workers = 3
	data, err := in.MarshalTOML()
	require.NoError(t, err)

	var out Config
	require.NoError(t, LoadConfig(bytes.NewReader(data), &out))
	assert.Equal(t, in, out)
}

func TestNewDefaults(t *testing.T) {
	d := New(nil)
	assert.Equal(t, Defaults, d.Config())
	assert.NotNil(t, d.failures)

	cfg := Defaults
	cfg.FailureCacheSize = 0
	assert.Nil(t, New(&cfg).failures)

	cfg.WarnEvery = 5
	assert.Equal(t, uint32(5), New(&cfg).warnings.N)
}
