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
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 60
)

// Poller drives a RemoteJobClient through the submit/poll/fetch lifecycle.
// The polling policy is deliberately simple: a fixed interval with no
// backoff, up to a fixed attempt ceiling (the defaults, 5 s x 60, give a
// five minute budget). Both knobs are configuration, not constants, so they
// can be tuned per service. The wait between polls is a select on a timer
// and the caller's context, so an abandoned run stops polling promptly; the
// remote job itself keeps running, since none of these services get a
// cancellation call.
type Poller struct {
	client      RemoteJobClient
	interval    time.Duration
	maxAttempts int
	tracer      trace.Tracer
}

// NewPoller builds a poller for one vendor client. Non-positive interval or
// attempt values fall back to the defaults.
func NewPoller(client RemoteJobClient, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPollAttempts
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		tracer:      otel.Tracer(fmt.Sprintf("%s-poller", client.ServiceName())),
	}
}

// Submit starts a remote job and returns its handle. A submission that
// errors, or that succeeds without producing a job id, yields a
// SubmissionError.
func (p *Poller) Submit(ctx context.Context, req *model.GenerationRequest) (*JobHandle, error) {
	ctx, span := p.tracer.Start(ctx, "submit")
	defer span.End()

	id, err := p.client.SubmitJob(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "submission failed")
		return nil, &SubmissionError{Service: p.client.ServiceName(), Err: err}
	}
	if id == "" {
		span.SetStatus(codes.Error, "no job id returned")
		return nil, &SubmissionError{Service: p.client.ServiceName(), Err: fmt.Errorf("no job id returned")}
	}
	span.SetStatus(codes.Ok, "job submitted")
	return &JobHandle{ID: id, SubmittedAt: time.Now(), Status: JobPending}, nil
}

// PollUntilDone queries the job at the fixed interval until it reaches a
// terminal status or the attempt ceiling, and returns the result URL of a
// completed job.
//
//   - Completed with no result: MissingResultError.
//   - Failed: RemoteGenerationError carrying the vendor's reason; never
//     retried here.
//   - Ceiling reached: TimeoutError after exactly maxAttempts polls. No
//     cancellation is sent; the remote side may still finish on its own.
func (p *Poller) PollUntilDone(ctx context.Context, handle *JobHandle) (string, error) {
	ctx, span := p.tracer.Start(ctx, "poll_until_done")
	defer span.End()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		state, err := p.client.JobState(ctx, handle.ID)
		if err != nil {
			span.SetStatus(codes.Error, "status query failed")
			return "", fmt.Errorf("%s: status query for job %s failed: %w", p.client.ServiceName(), handle.ID, err)
		}
		handle.Status = state.Status

		switch state.Status {
		case JobCompleted:
			if state.ResultURL == "" {
				span.SetStatus(codes.Error, "completed without result")
				return "", &MissingResultError{Service: p.client.ServiceName(), JobID: handle.ID}
			}
			span.SetStatus(codes.Ok, "job completed")
			return state.ResultURL, nil
		case JobFailed:
			span.SetStatus(codes.Error, "remote failure")
			return "", &RemoteGenerationError{
				Service: p.client.ServiceName(),
				JobID:   handle.ID,
				Reason:  state.FailureReason,
			}
		}

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, "canceled while waiting")
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}

	handle.Status = JobTimedOut
	span.SetStatus(codes.Error, "polling ceiling reached")
	return "", &TimeoutError{Service: p.client.ServiceName(), JobID: handle.ID, Attempts: p.maxAttempts}
}
