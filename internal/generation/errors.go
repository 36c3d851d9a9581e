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

// Package generation holds the remote-job poller and the stage adapters for
// the external generation services. This file defines the error taxonomy the
// adapters surface. Adapters never return sentinel values on failure: every
// failure mode has a typed error so callers can distinguish "the job never
// started" from "the service said it failed" from "we stopped waiting".
package generation

import "fmt"

// SubmissionError means the remote job never started: the submit call
// errored or came back without a job id.
type SubmissionError struct {
	Service string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: job submission failed: %v", e.Service, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// RemoteGenerationError means the remote service reported the job as failed.
// It carries the vendor's reason verbatim and is never retried here; the
// caller decides whether to retry the whole stage.
type RemoteGenerationError struct {
	Service string
	JobID   string
	Reason  string
}

func (e *RemoteGenerationError) Error() string {
	return fmt.Sprintf("%s: remote generation failed (job %s): %s", e.Service, e.JobID, e.Reason)
}

// TimeoutError means the polling ceiling was reached without a terminal
// status. The remote job may still complete after we give up; no
// cancellation call is issued, which is a known, accepted race.
type TimeoutError struct {
	Service  string
	JobID    string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: job %s not terminal after %d polls", e.Service, e.JobID, e.Attempts)
}

// MissingResultError means the job completed but carried no retrievable
// artifact.
type MissingResultError struct {
	Service string
	JobID   string
}

func (e *MissingResultError) Error() string {
	return fmt.Sprintf("%s: completed job %s has no retrievable result", e.Service, e.JobID)
}
