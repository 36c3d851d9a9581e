// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
)

func writeConfigFiles(t *testing.T, runtime, base, override string) {
	t.Helper()
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(base), 0o644))
	if override != "" {
		name := ".env." + runtime + ".toml"
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(override), 0o644))
	}
	t.Setenv(config.EnvConfigFilePrefix, dir)
	t.Setenv(config.EnvConfigRuntime, runtime)
}

func TestLoadConfigAppliesRuntimeOverrides(t *testing.T) {
	writeConfigFiles(t, "test", `
[application]
name = "shorts-creator"
output_dir = "output"

[speech]
api_key = "base-key"
base_url = "https://speech.example.com"
`, `
[speech]
api_key = "test-key"
`)

	cfg := config.NewConfig()
	assert.NoError(t, config.LoadConfig(cfg))

	// The override replaces only what it declares.
	assert.Equal(t, "test-key", cfg.Speech.APIKey)
	assert.Equal(t, "https://speech.example.com", cfg.Speech.BaseURL)
	assert.Equal(t, "shorts-creator", cfg.Application.Name)
}

func TestLoadConfigKeepsDefaultsForAbsentKeys(t *testing.T) {
	writeConfigFiles(t, "test", `
[music]
api_key = "k"
`, "")

	cfg := config.NewConfig()
	assert.NoError(t, config.LoadConfig(cfg))

	assert.Equal(t, config.DefaultPollIntervalSeconds, cfg.Music.PollIntervalSeconds)
	assert.Equal(t, config.DefaultMaxPollAttempts, cfg.Music.MaxPollAttempts)
	assert.Equal(t, config.DefaultVolumeOffsetDB, cfg.Music.VolumeOffsetDB)
	assert.Equal(t, config.DefaultVideoWidth, cfg.Video.Width)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
}

func TestLoadConfigToleratesMissingFiles(t *testing.T) {
	t.Setenv(config.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(config.EnvConfigRuntime, "test")

	cfg := config.NewConfig()
	assert.NoError(t, config.LoadConfig(cfg))
	assert.Equal(t, config.DefaultMaxPollAttempts, cfg.Music.MaxPollAttempts)
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	writeConfigFiles(t, "test", `[application`, "")

	cfg := config.NewConfig()
	assert.Error(t, config.LoadConfig(cfg))
}

func TestLoadConfigParsesTopicSubscriptions(t *testing.T) {
	writeConfigFiles(t, "test", `
[topic_subscriptions.run_requests]
name = "shorts-run-requests"
timeout_in_seconds = 60
`, "")

	cfg := config.NewConfig()
	assert.NoError(t, config.LoadConfig(cfg))

	sub, ok := cfg.TopicSubscriptions["run_requests"]
	assert.True(t, ok)
	assert.Equal(t, "shorts-run-requests", sub.Name)
	assert.Equal(t, 60, sub.TimeoutInSeconds)
}
