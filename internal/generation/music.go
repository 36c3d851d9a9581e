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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// MusicComposer generates background music through an asynchronous HTTP job
// API. It implements RemoteJobClient; a Poller drives the lifecycle and the
// adapter downloads the finished track.
type MusicComposer struct {
	apiKey  string
	baseURL string
	http    *ThrottledClient
	poller  *Poller
}

// NewMusicComposer builds the adapter with its own poller, tuned by the
// music section of the configuration.
func NewMusicComposer(cfg config.Music) *MusicComposer {
	c := &MusicComposer{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    NewThrottledClient(cfg.RequestsPerSecond),
	}
	c.poller = NewPoller(c, cfg.PollInterval(), cfg.MaxPollAttempts)
	return c
}

// ServiceName implements RemoteJobClient.
func (c *MusicComposer) ServiceName() string { return "music" }

// buildPrompt folds the style hints into the text prompt. The vendor takes a
// single free-text description, so genre, mood, and tempo become prose.
func (c *MusicComposer) buildPrompt(req *model.GenerationRequest) string {
	parts := []string{req.Prompt}
	if genre := req.Style["genre"]; genre != "" {
		parts = append(parts, genre)
	}
	if mood := req.Style["mood"]; mood != "" {
		parts = append(parts, mood+" mood")
	}
	if tempo := req.Style["tempo"]; tempo != "" {
		parts = append(parts, tempo+" tempo")
	}
	parts = append(parts, "instrumental, no vocals")
	return strings.Join(parts, ", ")
}

// SubmitJob implements RemoteJobClient. The requested duration is a hint;
// delivered tracks routinely come back shorter or longer and are reconciled
// locally afterwards.
func (c *MusicComposer) SubmitJob(ctx context.Context, req *model.GenerationRequest) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":   c.buildPrompt(req),
		"duration": req.TargetDuration,
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("generate returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return payload.ID, nil
}

// JobState implements RemoteJobClient.
func (c *MusicComposer) JobState(ctx context.Context, id string) (*JobState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/generations/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation status returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status   string `json:"status"`
		AudioURL string `json:"audio_url"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode generation status: %w", err)
	}

	state := &JobState{ResultURL: payload.AudioURL, FailureReason: payload.Error}
	switch payload.Status {
	case "queued", "submitted", "pending":
		state.Status = JobPending
	case "streaming", "processing", "running":
		state.Status = JobRunning
	case "complete", "completed", "succeeded":
		state.Status = JobCompleted
	case "failed", "error":
		state.Status = JobFailed
	default:
		state.Status = JobRunning
	}
	return state, nil
}

// Generate runs the full submit/poll/fetch cycle and writes the track to the
// request's output path.
func (c *MusicComposer) Generate(ctx context.Context, req *model.GenerationRequest) (*model.StageResult, error) {
	handle, err := c.poller.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	resultURL, err := c.poller.PollUntilDone(ctx, handle)
	if err != nil {
		return nil, err
	}

	dl, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}
	if err := c.http.download(dl, req.OutputPath); err != nil {
		return nil, fmt.Errorf("music: %w", err)
	}

	return &model.StageResult{
		Path: req.OutputPath,
		Metadata: map[string]any{
			"job_id":             handle.ID,
			"prompt":             c.buildPrompt(req),
			"requested_duration": req.TargetDuration,
		},
	}, nil
}
