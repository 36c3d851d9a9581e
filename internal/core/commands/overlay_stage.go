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
	"os"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/media"
)

// OverlayStage produces the final video. With captions enabled it burns the
// script text onto the muxed video; disabled, it promotes the muxed video to
// the final path with a plain copy so the rest of the pipeline and the
// manifest see an identical layout either way.
type OverlayStage struct {
	cor.BaseCommand
	burner    CaptionBurner
	prober    DurationProber
	enabled   bool
	outputDir string
}

// NewOverlayStage builds the stage.
func NewOverlayStage(name string, burner CaptionBurner, prober DurationProber, enabled bool, outputDir string) *OverlayStage {
	return &OverlayStage{
		BaseCommand: *cor.NewBaseCommand(name),
		burner:      burner,
		prober:      prober,
		enabled:     enabled,
		outputDir:   outputDir,
	}
}

func (s *OverlayStage) Execute(context cor.Context) {
	run := context.Run()
	muxed, ok := context.Get(s.GetInputParam()).(string)
	if !ok || muxed == "" {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("no muxed video available on the chain"))
		return
	}

	finalPath := stagePath(s.outputDir, FinalDir, run.Name, "final", ".mp4")

	if s.enabled {
		script, ok := run.Assets[model.KindScript]
		if !ok {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("no script asset to caption with"))
			return
		}
		text, err := os.ReadFile(script.Path)
		if err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), fmt.Errorf("failed to read script for captions: %w", err))
			return
		}
		if err := s.burner.BurnCaptions(context.GetContext(), muxed, string(text), finalPath); err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), err)
			return
		}
	} else {
		if err := media.CopyFile(muxed, finalPath); err != nil {
			s.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(s.GetName(), err)
			return
		}
	}

	duration, err := s.prober.Duration(context.GetContext(), finalPath)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	asset := model.MediaAsset{Path: finalPath, DurationSeconds: duration, Kind: model.KindFinalVideo}
	metadata := map[string]any{"captions": s.enabled}
	if err := run.AddAsset("final_video", asset, metadata); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), asset)
}
