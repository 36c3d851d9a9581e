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

// MuxStage assembles the audiovisual short. It mixes the voiceover and the
// reconciled music bed into one soundtrack (the voiceover defines its
// length), then attaches that soundtrack to the generated video. The video
// stream is copied as delivered; the soundtrack is fitted to the video's
// measured duration during the mux, which is where any drift in the video's
// generated length gets absorbed.
type MuxStage struct {
	cor.BaseCommand
	muxer     Muxer
	outputDir string
}

// NewMuxStage builds the stage.
func NewMuxStage(name string, muxer Muxer, outputDir string) *MuxStage {
	return &MuxStage{
		BaseCommand: *cor.NewBaseCommand(name),
		muxer:       muxer,
		outputDir:   outputDir,
	}
}

// IsExecutable requires the voiceover, music, and video assets on the run.
func (s *MuxStage) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil || context.Run() == nil {
		return false
	}
	run := context.Run()
	for _, kind := range []model.MediaKind{model.KindVoiceover, model.KindMusic, model.KindVideo} {
		if _, ok := run.Assets[kind]; !ok {
			return false
		}
	}
	return true
}

func (s *MuxStage) Execute(context cor.Context) {
	run := context.Run()
	voiceover := run.Assets[model.KindVoiceover]
	music := run.Assets[model.KindMusic]
	video := run.Assets[model.KindVideo]

	soundtrack := stagePath(s.outputDir, AudioDir, run.Name, "soundtrack", ".m4a")
	if err := s.muxer.MixAudio(context.GetContext(), voiceover.Path, music.Path, soundtrack); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to mix soundtrack: %w", err))
		return
	}
	run.AddFile("soundtrack", soundtrack)

	muxed := stagePath(s.outputDir, FinalDir, run.Name, "muxed", ".mp4")
	if err := s.muxer.AddAudioTrack(context.GetContext(), video.Path, soundtrack, muxed); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to mux video: %w", err))
		return
	}
	run.AddFile("muxed", muxed)

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), muxed)
}
