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

// VideoStage generates the visual track, targeting the voiceover's measured
// duration. Unlike music, the clip is only measured here, never re-timed:
// the mux stage fits the soundtrack to whatever length the vendor delivered,
// so the video stream can be copied without re-encoding.
type VideoStage struct {
	cor.BaseCommand
	generator Generator
	prober    DurationProber
	outputDir string
}

// NewVideoStage builds the stage.
func NewVideoStage(name string, generator Generator, prober DurationProber, outputDir string) *VideoStage {
	base := cor.NewBaseCommand(name)
	// Fan-out siblings publish under their own names; concurrent writes to
	// the shared pipe key would be last-writer-wins.
	base.OutputParamName = name
	return &VideoStage{
		BaseCommand: *base,
		generator:   generator,
		prober:      prober,
		outputDir:   outputDir,
	}
}

// IsExecutable additionally requires the voiceover asset for its duration.
func (s *VideoStage) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil || context.Run() == nil {
		return false
	}
	_, ok := context.Run().Voiceover()
	return ok
}

func (s *VideoStage) Execute(context cor.Context) {
	run := context.Run()
	voiceover, ok := run.Voiceover()
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("no voiceover asset on the run"))
		return
	}

	req := &model.GenerationRequest{
		Prompt:         run.Topic,
		Style:          styleHints(context),
		TargetDuration: voiceover.DurationSeconds,
		OutputPath:     stagePath(s.outputDir, VideoDir, run.Name, "video", ".mp4"),
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

	asset := model.MediaAsset{Path: result.Path, DurationSeconds: duration, Kind: model.KindVideo}
	if err := run.AddAsset("video", asset, result.Metadata); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), asset)
}
