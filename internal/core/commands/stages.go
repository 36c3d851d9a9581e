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

// Package commands provides the concrete Chain of Responsibility commands
// that make up the shorts pipeline: script, voiceover, music, video, mux,
// caption overlay, and manifest. Each command reads what it needs from the
// shared context and the run under construction, performs one stage, and
// records the resulting asset back on the run. This file holds the
// interfaces the commands consume and the path layout shared by all stages.
package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// StyleHintsKey is the context key under which the workflow stores the
// caller's style hints (voice, genre, mood, visual style) for the stage
// adapters.
const StyleHintsKey = "style_hints"

// Generator is the uniform face of a stage adapter: given a request, produce
// an artifact on disk and describe it. The script, speech, music, and video
// adapters all satisfy it.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.StageResult, error)
}

// DurationProber measures the decoded length of an artifact.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// DurationMatcher reconciles a clip onto a target timeline and sets levels.
type DurationMatcher interface {
	MatchDuration(ctx context.Context, asset model.MediaAsset, target float64) (model.MediaAsset, error)
	AdjustVolume(ctx context.Context, asset model.MediaAsset, deltaDB float64) (model.MediaAsset, error)
}

// Muxer combines audio tracks and attaches them to a video.
type Muxer interface {
	DurationProber
	MixAudio(ctx context.Context, voicePath, musicPath, outputPath string) error
	AddAudioTrack(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// CaptionBurner renders caption text onto a video.
type CaptionBurner interface {
	BurnCaptions(ctx context.Context, videoPath, text, outputPath string) error
}

// Subdirectories of the run's output directory, one per artifact family.
const (
	TextDir  = "text"
	AudioDir = "audio"
	MusicDir = "music"
	VideoDir = "video"
	FinalDir = "final"
)

// stagePath builds the canonical artifact path for a stage:
// {outputDir}/{subdir}/{runName}_{suffix}{ext}.
func stagePath(outputDir, subdir, runName, suffix, ext string) string {
	return filepath.Join(outputDir, subdir, fmt.Sprintf("%s_%s%s", runName, suffix, ext))
}

// styleHints returns the caller's style hints from the context, or an empty
// map when none were supplied.
func styleHints(c cor.Context) map[string]string {
	if hints, ok := c.Get(StyleHintsKey).(map[string]string); ok {
		return hints
	}
	return map[string]string{}
}
