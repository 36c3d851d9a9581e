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

package generation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
)

// scriptedClient is a fake RemoteJobClient that returns a fixed sequence of
// job states, one per poll, and counts every call.
type scriptedClient struct {
	submitID    string
	submitErr   error
	states      []generation.JobState
	stateErr    error
	submitCalls int
	pollCalls   int
}

func (c *scriptedClient) ServiceName() string { return "scripted" }

func (c *scriptedClient) SubmitJob(_ context.Context, _ *model.GenerationRequest) (string, error) {
	c.submitCalls++
	return c.submitID, c.submitErr
}

func (c *scriptedClient) JobState(_ context.Context, _ string) (*generation.JobState, error) {
	c.pollCalls++
	if c.stateErr != nil {
		return nil, c.stateErr
	}
	idx := c.pollCalls - 1
	if idx >= len(c.states) {
		idx = len(c.states) - 1
	}
	state := c.states[idx]
	return &state, nil
}

func TestPollerReturnsResultAfterPendingPolls(t *testing.T) {
	client := &scriptedClient{
		submitID: "job-1",
		states: []generation.JobState{
			{Status: generation.JobPending},
			{Status: generation.JobRunning},
			{Status: generation.JobCompleted, ResultURL: "https://example.com/out.mp3"},
		},
	}
	poller := generation.NewPoller(client, time.Millisecond, 10)

	handle, err := poller.Submit(context.Background(), &model.GenerationRequest{Prompt: "x"})
	assert.NoError(t, err)
	assert.Equal(t, "job-1", handle.ID)
	assert.Equal(t, generation.JobPending, handle.Status)

	url, err := poller.PollUntilDone(context.Background(), handle)
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/out.mp3", url)
	assert.Equal(t, generation.JobCompleted, handle.Status)
	assert.Equal(t, 3, client.pollCalls)
}

func TestPollerTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	client := &scriptedClient{
		submitID: "job-2",
		states:   []generation.JobState{{Status: generation.JobRunning}},
	}
	poller := generation.NewPoller(client, time.Millisecond, 4)

	handle, err := poller.Submit(context.Background(), &model.GenerationRequest{})
	assert.NoError(t, err)

	_, err = poller.PollUntilDone(context.Background(), handle)
	var timeout *generation.TimeoutError
	assert.True(t, errors.As(err, &timeout))
	assert.Equal(t, 4, timeout.Attempts)
	assert.Equal(t, 4, client.pollCalls)
	assert.Equal(t, generation.JobTimedOut, handle.Status)
}

func TestPollerReportsRemoteFailureWithoutRetrying(t *testing.T) {
	client := &scriptedClient{
		submitID: "job-3",
		states: []generation.JobState{
			{Status: generation.JobRunning},
			{Status: generation.JobFailed, FailureReason: "content policy"},
		},
	}
	poller := generation.NewPoller(client, time.Millisecond, 10)

	handle, _ := poller.Submit(context.Background(), &model.GenerationRequest{})
	_, err := poller.PollUntilDone(context.Background(), handle)

	var remote *generation.RemoteGenerationError
	assert.True(t, errors.As(err, &remote))
	assert.Equal(t, "content policy", remote.Reason)
	assert.Equal(t, 2, client.pollCalls)
}

func TestPollerRejectsCompletionWithoutResult(t *testing.T) {
	client := &scriptedClient{
		submitID: "job-4",
		states:   []generation.JobState{{Status: generation.JobCompleted}},
	}
	poller := generation.NewPoller(client, time.Millisecond, 10)

	handle, _ := poller.Submit(context.Background(), &model.GenerationRequest{})
	_, err := poller.PollUntilDone(context.Background(), handle)

	var missing *generation.MissingResultError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "job-4", missing.JobID)
}

func TestPollerWrapsSubmissionFailures(t *testing.T) {
	client := &scriptedClient{submitErr: fmt.Errorf("quota exhausted")}
	poller := generation.NewPoller(client, time.Millisecond, 10)

	_, err := poller.Submit(context.Background(), &model.GenerationRequest{})
	var sub *generation.SubmissionError
	assert.True(t, errors.As(err, &sub))
}

func TestPollerTreatsEmptyJobIDAsSubmissionFailure(t *testing.T) {
	client := &scriptedClient{submitID: ""}
	poller := generation.NewPoller(client, time.Millisecond, 10)

	_, err := poller.Submit(context.Background(), &model.GenerationRequest{})
	var sub *generation.SubmissionError
	assert.True(t, errors.As(err, &sub))
}

func TestPollerStopsWhenContextCanceled(t *testing.T) {
	client := &scriptedClient{
		submitID: "job-5",
		states:   []generation.JobState{{Status: generation.JobRunning}},
	}
	// A long interval so the cancellation, not the timer, ends the wait.
	poller := generation.NewPoller(client, time.Hour, 10)

	handle, _ := poller.Submit(context.Background(), &model.GenerationRequest{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.PollUntilDone(ctx, handle)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.pollCalls)
}
