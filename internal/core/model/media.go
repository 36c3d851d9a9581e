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

// Package model defines the core data structures for the shorts creation
// pipeline. The objects in this file are transient: they live in memory for
// the duration of a single run and are passed between commands on the chain
// context. The only durable artifact a run produces, besides the media files
// themselves, is the manifest (see manifest.go).
package model

import (
	"fmt"
	"time"
)

// MediaKind identifies which stage of the pipeline produced an asset.
type MediaKind string

const (
	KindScript     MediaKind = "script"
	KindVoiceover  MediaKind = "voiceover"
	KindMusic      MediaKind = "music"
	KindVideo      MediaKind = "video"
	KindFinalVideo MediaKind = "final_video"
)

// MediaAsset is the unit of exchange between pipeline stages. Every asset
// except the script carries a duration that was measured by decoding the
// artifact on disk. Duration hints supplied at generation time are advisory
// only; remote services do not guarantee exact lengths, so nothing downstream
// ever trusts them.
type MediaAsset struct {
	Path            string    `json:"path"`
	DurationSeconds float64   `json:"duration_seconds"`
	Kind            MediaKind `json:"kind"`
}

// GenerationRequest is the opaque parameter bag handed to a stage adapter.
// It is immutable once submitted: adapters receive a value they must not
// modify, and the orchestrator never reuses one across stages.
type GenerationRequest struct {
	// Prompt is the full text prompt sent to the remote service. For the
	// voiceover stage this is the script itself.
	Prompt string
	// Style carries adapter-specific knobs (voice id, genre, mood, tempo,
	// keywords). Adapters ignore keys they do not understand.
	Style map[string]string
	// TargetDuration is a hint in seconds, zero when unset. The measured
	// duration of the produced artifact is always authoritative.
	TargetDuration float64
	// OutputPath is where the adapter must write the artifact.
	OutputPath string
}

// StageResult is the uniform output of every stage adapter: the artifact it
// wrote plus a free-form metadata record that ends up in the manifest.
type StageResult struct {
	Path     string
	Metadata map[string]any
}

// PipelineRun accumulates the state of one create-short execution. It is
// created at the start of the run, appended to as each stage completes, and
// finalized by the manifest stage. A run is never rolled back: when a later
// stage fails, the assets recorded here stay on disk for inspection and
// manual resumption.
type PipelineRun struct {
	RunID          string
	Name           string
	Topic          string
	TargetDuration float64
	StartedAt      time.Time
	Assets         map[MediaKind]MediaAsset
	StageMetadata  map[string]map[string]any
	Files          map[string]string
}

// NewPipelineRun creates an empty run. Maps are initialized up front so
// stage commands can append without nil checks.
func NewPipelineRun(runID, name, topic string, targetDuration float64) *PipelineRun {
	return &PipelineRun{
		RunID:          runID,
		Name:           name,
		Topic:          topic,
		TargetDuration: targetDuration,
		StartedAt:      time.Now(),
		Assets:         make(map[MediaKind]MediaAsset),
		StageMetadata:  make(map[string]map[string]any),
		Files:          make(map[string]string),
	}
}

// AddAsset records a completed stage's artifact and metadata. Exactly one
// asset per kind is produced per run; a duplicate indicates a wiring bug in
// the workflow, so it is rejected rather than silently overwritten.
func (r *PipelineRun) AddAsset(stage string, asset MediaAsset, metadata map[string]any) error {
	if _, ok := r.Assets[asset.Kind]; ok {
		return fmt.Errorf("run %s already has a %s asset", r.Name, asset.Kind)
	}
	r.Assets[asset.Kind] = asset
	r.Files[stage] = asset.Path
	if metadata != nil {
		r.StageMetadata[stage] = metadata
	}
	return nil
}

// AddFile records an intermediate artifact that is not one of the five asset
// kinds, such as the muxed-but-uncaptioned video.
func (r *PipelineRun) AddFile(stage, path string) {
	r.Files[stage] = path
}

// Voiceover returns the voiceover asset. Its measured duration is the
// authoritative target for the music, video, and mux stages, superseding
// whatever target duration the caller originally asked for.
func (r *PipelineRun) Voiceover() (MediaAsset, bool) {
	a, ok := r.Assets[KindVoiceover]
	return a, ok
}
