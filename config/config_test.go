package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "rectcount-test"

[index]
source = "testdata/rects.json"
strategy = "table"

[cache]
enabled = true
`)

	var conf Config
	require.NoError(t, LoadFile(path, &conf))

	assert.Equal(t, "rectcount-test", conf.Server.Name)
	assert.Equal(t, 8080, conf.Server.HTTP.Port)
	assert.Equal(t, 5*time.Second, conf.Server.HTTP.ShutdownTimeout)
	assert.Equal(t, "table", conf.Index.Strategy)
	assert.Equal(t, 10000, conf.Index.MaxBatch)
	assert.Equal(t, "info", conf.Log.Level)
	assert.True(t, conf.Cache.Enabled)
	assert.Equal(t, 64, conf.Cache.MaxMB)
	assert.Equal(t, 10*time.Minute, conf.Cache.LifeWindow)
}

func TestLoadFileValidation(t *testing.T) {
	cases := map[string]string{
		"unknown strategy": `
[index]
source = "x.json"
strategy = "quadtree"
`,
		"missing source": `
[index]
strategy = "linear"
`,
		"bad port": `
[server.http]
port = 70000
[index]
source = "x.json"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var conf Config
			err := LoadFile(writeConfig(t, body), &conf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	var conf Config
	err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), &conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config error")
}

func TestMask(t *testing.T) {
	m := map[string]any{
		"Minio": map[string]any{"SecretAccessKey": "s3cr3t", "Endpoint": "localhost:9000"},
		"Name":  "rectcount",
	}
	mask(m)

	minio := m["Minio"].(map[string]any)
	assert.Equal(t, "******", minio["SecretAccessKey"])
	assert.Equal(t, "localhost:9000", minio["Endpoint"])
	assert.Equal(t, "rectcount", m["Name"])
}
