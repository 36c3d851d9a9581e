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

package generation

import (
	"context"
	"time"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// JobStatus is the lifecycle state of a remote generation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// Terminal reports whether the status ends a job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobTimedOut
}

// JobHandle tracks one submitted remote job. The poller owns the handle for
// its lifetime; once a terminal status has been consumed by the caller the
// handle is of no further use.
type JobHandle struct {
	ID          string
	SubmittedAt time.Time
	Status      JobStatus
}

// JobState is one observation of a remote job: its status plus, when
// completed, where to fetch the artifact, and when failed, the vendor's
// reason.
type JobState struct {
	Status        JobStatus
	ResultURL     string
	FailureReason string
}

// RemoteJobClient is the vendor-facing side of the poller. Each async
// adapter (music, video) implements it; the poller drives the
// submit/poll/fetch state machine on top.
type RemoteJobClient interface {
	// ServiceName names the vendor for error messages and telemetry.
	ServiceName() string

	// SubmitJob starts a remote job and returns its id. An empty id with a
	// nil error is treated as a submission failure by the poller.
	SubmitJob(ctx context.Context, req *model.GenerationRequest) (string, error)

	// JobState fetches the current state of a job.
	JobState(ctx context.Context, id string) (*JobState, error)
}
