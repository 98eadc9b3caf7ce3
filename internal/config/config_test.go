package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-nav/internal/genome"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, genome.DefaultUCSCURL, c.API.UCSCURL)
	assert.Equal(t, 30*time.Second, c.API.Timeout)
	assert.Equal(t, 25, c.API.SearchLimit)
	assert.Equal(t, "hg38", c.Navigation.DefaultAssembly)
	assert.Equal(t, "Human", c.Navigation.Organism)
	assert.Equal(t, "BRCA1", c.Navigation.ExampleGene)
	assert.Equal(t, int64(10000), c.Range.MaxInitialWindow)
	assert.False(t, c.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, c.Cache.TTL)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 30*time.Minute, c.Server.SessionTTL)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".genome-nav", "cache.duckdb"), c.Cache.Path)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  timeout: 5s
navigation:
  default-assembly: hg19
range:
  max-initial-window: 500
cache:
  enabled: true
  path: /tmp/nav.duckdb
  ttl: 1h
`), 0644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.API.Timeout)
	assert.Equal(t, "hg19", c.Navigation.DefaultAssembly)
	assert.Equal(t, "Human", c.Navigation.Organism)
	assert.Equal(t, int64(500), c.Range.MaxInitialWindow)
	assert.True(t, c.Cache.Enabled)
	assert.Equal(t, "/tmp/nav.duckdb", c.Cache.Path)
	assert.Equal(t, time.Hour, c.Cache.TTL)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GENOMENAV_NAVIGATION_ORGANISM", "Mouse")
	t.Setenv("GENOMENAV_SERVER_PORT", "9090")

	c, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "Mouse", c.Navigation.Organism)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad url", "api.ucsc-url", "ftp://example.org"},
		{"negative timeout", "api.timeout", "-1s"},
		{"empty assembly", "navigation.default-assembly", ""},
		{"bad port", "server.port", 70000},
		{"negative session ttl", "server.session-ttl", "-1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestClientOptions(t *testing.T) {
	c, err := Load(newViper())
	require.NoError(t, err)

	opts := c.ClientOptions()
	assert.Equal(t, int64(10000), opts.MaxInitialWindow)
	assert.Equal(t, 30*time.Second, opts.Timeout)

	c.Range.MaxInitialWindow = 0
	assert.Equal(t, int64(-1), c.ClientOptions().MaxInitialWindow, "zero disables the cap")

	m := c.MachineOptions()
	assert.Equal(t, "hg38", m.DefaultAssembly)
	assert.Equal(t, "BRCA1", m.ExampleGene)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/x/cache.duckdb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "cache.duckdb"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
