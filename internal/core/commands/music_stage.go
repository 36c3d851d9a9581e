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

package commands

import (
	"fmt"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// MusicStage generates the background track and immediately reconciles it:
// delivered tracks routinely miss the requested length, so the clip is
// measured, trimmed or loop-extended to the voiceover's duration, given a
// tail fade, and finally attenuated so it sits under the narration.
type MusicStage struct {
	cor.BaseCommand
	generator      Generator
	matcher        DurationMatcher
	volumeOffsetDB float64
	outputDir      string
}

// NewMusicStage builds the stage. volumeOffsetDB is the pure gain shift
// applied after reconciliation, typically around -10 dB.
func NewMusicStage(name string, generator Generator, matcher DurationMatcher, volumeOffsetDB float64, outputDir string) *MusicStage {
	base := cor.NewBaseCommand(name)
	// Fan-out siblings publish under their own names; concurrent writes to
	// the shared pipe key would be last-writer-wins.
	base.OutputParamName = name
	return &MusicStage{
		BaseCommand:    *base,
		generator:      generator,
		matcher:        matcher,
		volumeOffsetDB: volumeOffsetDB,
		outputDir:      outputDir,
	}
}

// IsExecutable additionally requires the voiceover asset, whose measured
// duration is this stage's reconciliation target.
func (s *MusicStage) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil || context.Run() == nil {
		return false
	}
	_, ok := context.Run().Voiceover()
	return ok
}

func (s *MusicStage) Execute(context cor.Context) {
	run := context.Run()
	voiceover, ok := run.Voiceover()
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("no voiceover asset on the run"))
		return
	}

	req := &model.GenerationRequest{
		Prompt:         fmt.Sprintf("background music for a short video about %s", run.Topic),
		Style:          styleHints(context),
		TargetDuration: voiceover.DurationSeconds,
		OutputPath:     stagePath(s.outputDir, MusicDir, run.Name, "music", ".mp3"),
	}

	result, err := s.generator.Generate(context.GetContext(), req)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	asset := model.MediaAsset{Path: result.Path, Kind: model.KindMusic}
	asset, err = s.matcher.MatchDuration(context.GetContext(), asset, voiceover.DurationSeconds)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}
	asset, err = s.matcher.AdjustVolume(context.GetContext(), asset, s.volumeOffsetDB)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	metadata := result.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["reconciled_duration"] = asset.DurationSeconds
	metadata["volume_offset_db"] = s.volumeOffsetDB

	if err := run.AddAsset("music", asset, metadata); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), asset)
}
