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
	"path/filepath"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// ManifestStage finalizes a run by writing its manifest. It is the last
// command on the chain, so an aborted run never leaves a partial manifest;
// the presence of {name}.json is the durable signal that a run completed.
type ManifestStage struct {
	cor.BaseCommand
	outputDir string
}

// NewManifestStage builds the stage.
func NewManifestStage(name string, outputDir string) *ManifestStage {
	return &ManifestStage{
		BaseCommand: *cor.NewBaseCommand(name),
		outputDir:   outputDir,
	}
}

// IsExecutable requires the run and its final video.
func (s *ManifestStage) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil || context.Run() == nil {
		return false
	}
	_, ok := context.Run().Assets[model.KindFinalVideo]
	return ok
}

func (s *ManifestStage) Execute(context cor.Context) {
	run := context.Run()
	manifest := model.NewManifest(run)

	path := filepath.Join(s.outputDir, FinalDir, run.Name+".json")
	if err := manifest.Save(path); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), manifest)
}
