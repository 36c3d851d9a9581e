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

// Package config defines the application configuration, loaded from TOML
// files. Every adapter receives its credentials and tuning knobs through
// these structs at construction time; nothing in the core reads process
// environment state directly.
package config

import "time"

// Script configures the script generation adapter (Gemini).
type Script struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int32   `toml:"max_tokens"`
}

// Speech configures the text-to-speech adapter.
type Speech struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	ModelID         string  `toml:"model_id"`
	DefaultVoiceID  string  `toml:"default_voice_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
}

// Music configures the background music adapter and its polling policy.
type Music struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	VolumeOffsetDB      float64 `toml:"volume_offset_db"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	MaxPollAttempts     int     `toml:"max_poll_attempts"`
	RequestsPerSecond   int     `toml:"requests_per_second"`
}

// Video configures the video generation adapter and its polling policy.
type Video struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Width               int    `toml:"width"`
	Height              int    `toml:"height"`
	FramesPerSecond     int    `toml:"frames_per_second"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxPollAttempts     int    `toml:"max_poll_attempts"`
	RequestsPerSecond   int    `toml:"requests_per_second"`
}

// Media configures the local ffmpeg toolchain used for probing,
// reconciliation, muxing, and caption overlay.
type Media struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
	FontFile    string `toml:"font_file"`
}

// Storage configures the optional GCS archive of finished runs.
type Storage struct {
	ArchiveBucket             string `toml:"archive_bucket"`
	SignerServiceAccountEmail string `toml:"signer_service_account_email"`
}

// RunHistory configures the optional BigQuery sink for run records.
type RunHistory struct {
	Dataset string `toml:"dataset"`
	Table   string `toml:"runs_table"`
}

// TopicSubscription configures the optional Pub/Sub trigger: runs can be
// requested by publishing a JSON message instead of calling the API.
type TopicSubscription struct {
	Name             string `toml:"name"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Config is the root configuration object.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		OutputDir       string `toml:"output_dir"`
		GoogleProjectId string `toml:"google_project_id"`
	} `toml:"application"`
	Script             Script                       `toml:"script"`
	Speech             Speech                       `toml:"speech"`
	Music              Music                        `toml:"music"`
	Video              Video                        `toml:"video"`
	Media              Media                        `toml:"media"`
	Storage            Storage                      `toml:"storage"`
	RunHistory         RunHistory                   `toml:"run_history"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
}

// Defaults applied when a field is absent from the TOML files. The five
// second interval and sixty attempt ceiling mirror the polling policy of the
// upstream generation services.
const (
	DefaultPollIntervalSeconds = 5
	DefaultMaxPollAttempts     = 60
	DefaultVolumeOffsetDB      = -10.0
	DefaultVideoWidth          = 768
	DefaultVideoHeight         = 1344
	DefaultFramesPerSecond     = 24
	DefaultRequestsPerSecond   = 2
)

// NewConfig creates a Config with initialized maps and polling defaults.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	c.Music.PollIntervalSeconds = DefaultPollIntervalSeconds
	c.Music.MaxPollAttempts = DefaultMaxPollAttempts
	c.Music.VolumeOffsetDB = DefaultVolumeOffsetDB
	c.Music.RequestsPerSecond = DefaultRequestsPerSecond
	c.Video.PollIntervalSeconds = DefaultPollIntervalSeconds
	c.Video.MaxPollAttempts = DefaultMaxPollAttempts
	c.Video.Width = DefaultVideoWidth
	c.Video.Height = DefaultVideoHeight
	c.Video.FramesPerSecond = DefaultFramesPerSecond
	c.Video.RequestsPerSecond = DefaultRequestsPerSecond
	c.Media.FFmpegPath = "ffmpeg"
	c.Media.FFprobePath = "ffprobe"
	return c
}

// PollInterval converts the configured interval to a duration.
func (m Music) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// PollInterval converts the configured interval to a duration.
func (v Video) PollInterval() time.Duration {
	return time.Duration(v.PollIntervalSeconds) * time.Second
}
