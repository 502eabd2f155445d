package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
infer_url = "http://localhost:5001/api/predict"
filter_predictions = false

[completion]
label_prefix = ""
max_candidates = 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5001/api/predict", cfg.Server.InferURL)
	assert.False(t, cfg.Server.FilterPredictions)
	assert.Equal(t, 60000, cfg.Server.TimeoutMs)
	assert.Equal(t, "", cfg.Completion.LabelPrefix)
	assert.Equal(t, 3, cfg.Completion.MaxCandidates)
	assert.Equal(t, 4, cfg.Completion.LookbackLines)
	assert.Equal(t, ":", cfg.CLI.DefaultTrigger)
}

func TestLoadConfig_PartialRecovery(t *testing.T) {
	// timeout_ms has the wrong type; everything else is kept
	path := writeConfig(t, `
[server]
timeout_ms = "fast"
infer_url = "http://dev.local/api/predict"

[feedback]
share_accepted = true

[cli]
default_trigger = ">"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60000, cfg.Server.TimeoutMs)
	assert.Equal(t, "http://dev.local/api/predict", cfg.Server.InferURL)
	assert.True(t, cfg.Feedback.ShareAccepted)
	assert.Equal(t, ">", cfg.CLI.DefaultTrigger)
}

func TestLoadConfig_Unparseable(t *testing.T) {
	path := writeConfig(t, "[server\ninfer_url = ")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_NormalizesRanges(t *testing.T) {
	path := writeConfig(t, `
[server]
timeout_ms = -5

[completion]
lookback_lines = 0
max_candidates = -1

[cli]
default_trigger = "("
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60000, cfg.Server.TimeoutMs)
	assert.Equal(t, 4, cfg.Completion.LookbackLines)
	assert.Equal(t, 0, cfg.Completion.MaxCandidates)
	assert.Equal(t, ":", cfg.CLI.DefaultTrigger)
}

func TestInitConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), again)
}

func TestLoadConfigWithPriority_CustomPath(t *testing.T) {
	path := writeConfig(t, "[completion]\nmax_candidates = 7\n")

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 7, cfg.Completion.MaxCandidates)
}

func TestUpdate(t *testing.T) {
	path := writeConfig(t, "")
	cfg := DefaultConfig()

	url := "http://localhost:9000/api/predict"
	timeout := 1500
	filter := false
	require.NoError(t, cfg.Update(path, &url, &timeout, &filter))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, url, loaded.Server.InferURL)
	assert.Equal(t, 1500*time.Millisecond, loaded.Server.Timeout())
	assert.False(t, loaded.Server.FilterPredictions)
}
