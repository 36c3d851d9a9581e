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

package cloud

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/workflow"
)

// RunRecord is one row of the run history table. Field tags match the
// BigQuery schema.
type RunRecord struct {
	RunID          string    `bigquery:"run_id"`
	Name           string    `bigquery:"name"`
	Topic          string    `bigquery:"topic"`
	TargetDuration float64   `bigquery:"target_duration"`
	FinalDuration  float64   `bigquery:"final_duration"`
	Status         string    `bigquery:"status"`
	FailedStage    string    `bigquery:"failed_stage"`
	Error          string    `bigquery:"error"`
	StartedAt      time.Time `bigquery:"started_at"`
	FinishedAt     time.Time `bigquery:"finished_at"`
}

// NewRunRecord assembles a history row from a finished or failed run.
func NewRunRecord(runID, name, topic string, targetDuration float64, startedAt time.Time, manifest *model.Manifest, runErr error) *RunRecord {
	rec := &RunRecord{
		RunID:          runID,
		Name:           name,
		Topic:          topic,
		TargetDuration: targetDuration,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		Status:         "completed",
	}
	if manifest != nil {
		rec.FinalDuration = manifest.Duration
	}
	if runErr != nil {
		rec.Status = "failed"
		rec.Error = runErr.Error()
		var sf *workflow.StageFailure
		if errors.As(runErr, &sf) {
			rec.FailedStage = sf.Stage
		}
	}
	return rec
}

// RunHistoryWriter streams run records into BigQuery.
type RunHistoryWriter struct {
	inserter *bigquery.Inserter
}

// NewRunHistoryWriter builds a writer for the configured dataset and table.
func NewRunHistoryWriter(client *bigquery.Client, dataset, table string) *RunHistoryWriter {
	return &RunHistoryWriter{inserter: client.Dataset(dataset).Table(table).Inserter()}
}

// Write inserts one record. History is best-effort from the pipeline's point
// of view; callers log failures instead of failing the run.
func (w *RunHistoryWriter) Write(ctx context.Context, rec *RunRecord) error {
	return w.inserter.Put(ctx, rec)
}
