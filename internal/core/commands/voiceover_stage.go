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

// VoiceoverStage synthesizes the spoken narration from the script text piped
// in by the previous stage, then measures the produced audio. That measured
// duration becomes the run's authoritative timeline: the music, video, and
// mux stages all key off it, and the caller's requested duration is from
// this point on only a historical note.
type VoiceoverStage struct {
	cor.BaseCommand
	generator Generator
	prober    DurationProber
	outputDir string
}

// NewVoiceoverStage builds the stage.
func NewVoiceoverStage(name string, generator Generator, prober DurationProber, outputDir string) *VoiceoverStage {
	return &VoiceoverStage{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		prober:      prober,
		outputDir:   outputDir,
	}
}

func (s *VoiceoverStage) Execute(context cor.Context) {
	run := context.Run()
	script, ok := context.Get(s.GetInputParam()).(string)
	if !ok || script == "" {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("no script text available on the chain"))
		return
	}

	req := &model.GenerationRequest{
		Prompt:         script,
		Style:          styleHints(context),
		TargetDuration: run.TargetDuration,
		OutputPath:     stagePath(s.outputDir, AudioDir, run.Name, "voiceover", ".mp3"),
	}

	result, err := s.generator.Generate(context.GetContext(), req)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	duration, err := s.prober.Duration(context.GetContext(), result.Path)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	asset := model.MediaAsset{Path: result.Path, DurationSeconds: duration, Kind: model.KindVoiceover}
	if err := run.AddAsset("voiceover", asset, result.Metadata); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), asset)
}
