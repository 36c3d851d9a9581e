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
)

// ScriptStage is the first command on the chain. It asks the script adapter
// for the spoken text of the short and pipes the text itself to the
// voiceover stage through the context.
type ScriptStage struct {
	cor.BaseCommand
	generator Generator
	outputDir string
}

// NewScriptStage builds the stage.
func NewScriptStage(name string, generator Generator, outputDir string) *ScriptStage {
	return &ScriptStage{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		outputDir:   outputDir,
	}
}

// IsExecutable requires a live Go context and a run; the stage draws its
// input from the run's topic rather than the chain's piped value.
func (s *ScriptStage) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Run() != nil
}

func (s *ScriptStage) Execute(context cor.Context) {
	run := context.Run()
	req := &model.GenerationRequest{
		Prompt:         run.Topic,
		Style:          styleHints(context),
		TargetDuration: run.TargetDuration,
		OutputPath:     stagePath(s.outputDir, TextDir, run.Name, "script", ".txt"),
	}

	result, err := s.generator.Generate(context.GetContext(), req)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	asset := model.MediaAsset{Path: result.Path, Kind: model.KindScript}
	if err := run.AddAsset("script", asset, result.Metadata); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	text, err := os.ReadFile(result.Path)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to read generated script: %w", err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), string(text))
}
