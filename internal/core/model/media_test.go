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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

func TestNewPipelineRunInitializesMaps(t *testing.T) {
	run := model.NewPipelineRun("run-1", "ducks-abc123", "rubber ducks", 30)

	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "ducks-abc123", run.Name)
	assert.Equal(t, 30.0, run.TargetDuration)
	assert.NotNil(t, run.Assets)
	assert.NotNil(t, run.StageMetadata)
	assert.NotNil(t, run.Files)
	assert.False(t, run.StartedAt.IsZero())
}

func TestAddAssetRejectsDuplicateKind(t *testing.T) {
	run := model.NewPipelineRun("run-1", "ducks", "rubber ducks", 30)

	err := run.AddAsset("voiceover", model.MediaAsset{
		Path:            "audio/ducks_voiceover.mp3",
		DurationSeconds: 27.4,
		Kind:            model.KindVoiceover,
	}, map[string]any{"voice_id": "v-1"})
	assert.NoError(t, err)
	assert.Equal(t, "audio/ducks_voiceover.mp3", run.Files["voiceover"])
	assert.Equal(t, "v-1", run.StageMetadata["voiceover"]["voice_id"])

	err = run.AddAsset("voiceover-retry", model.MediaAsset{Kind: model.KindVoiceover}, nil)
	assert.Error(t, err)
	assert.Len(t, run.Assets, 1)
}

func TestVoiceoverAccessor(t *testing.T) {
	run := model.NewPipelineRun("run-1", "ducks", "rubber ducks", 30)

	_, ok := run.Voiceover()
	assert.False(t, ok)

	_ = run.AddAsset("voiceover", model.MediaAsset{
		Path:            "audio/vo.mp3",
		DurationSeconds: 27.4,
		Kind:            model.KindVoiceover,
	}, nil)

	vo, ok := run.Voiceover()
	assert.True(t, ok)
	assert.Equal(t, 27.4, vo.DurationSeconds)
}

func TestAddFileRecordsIntermediateArtifacts(t *testing.T) {
	run := model.NewPipelineRun("run-1", "ducks", "rubber ducks", 30)
	run.AddFile("muxed", "final/ducks_muxed.mp4")
	assert.Equal(t, "final/ducks_muxed.mp4", run.Files["muxed"])
}
