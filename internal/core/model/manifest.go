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

package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Manifest is the one durable JSON record a completed run leaves behind:
// the topic, the final measured duration, every artifact path keyed by
// stage, and every stage's metadata record. Writing it is the final stage
// of the pipeline, so an aborted run never produces a partial manifest.
// There is no schema version field; consumers key off the run name by
// convention.
type Manifest struct {
	Topic        string                    `json:"topic"`
	CreationDate string                    `json:"creation_date"`
	Duration     float64                   `json:"duration"`
	Files        map[string]string         `json:"files"`
	Components   map[string]map[string]any `json:"components"`
}

// NewManifest assembles a manifest from a finished run. Duration is the
// voiceover's measured duration, the run's authoritative timeline, not the
// caller's original request.
func NewManifest(run *PipelineRun) *Manifest {
	duration := run.TargetDuration
	if vo, ok := run.Voiceover(); ok {
		duration = vo.DurationSeconds
	}
	return &Manifest{
		Topic:        run.Topic,
		CreationDate: time.Now().Format(time.RFC3339),
		Duration:     duration,
		Files:        run.Files,
		Components:   run.StageMetadata,
	}
}

// Save writes the manifest as indented JSON. The file is written read-only
// to keep the record immutable after finalization.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o444); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// LoadManifest reads a manifest back from disk. Used by the API server to
// answer status queries and by tests to verify finalized runs.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := &Manifest{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return out, nil
}
