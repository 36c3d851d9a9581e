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

// VideoGenerator produces the visual track through an asynchronous
// text-to-video task API. Like the music adapter it implements
// RemoteJobClient and lets a Poller drive the lifecycle.
type VideoGenerator struct {
	apiKey  string
	baseURL string
	width   int
	height  int
	fps     int
	http    *ThrottledClient
	poller  *Poller
}

// NewVideoGenerator builds the adapter with its own poller, tuned by the
// video section of the configuration.
func NewVideoGenerator(cfg config.Video) *VideoGenerator {
	g := &VideoGenerator{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		width:   cfg.Width,
		height:  cfg.Height,
		fps:     cfg.FramesPerSecond,
		http:    NewThrottledClient(cfg.RequestsPerSecond),
	}
	g.poller = NewPoller(g, cfg.PollInterval(), cfg.MaxPollAttempts)
	return g
}

// ServiceName implements RemoteJobClient.
func (g *VideoGenerator) ServiceName() string { return "video" }

// SubmitJob implements RemoteJobClient. The clip length is expressed in
// frames at the configured rate; the vendor clamps requests outside its
// supported range, so the delivered clip may still differ from the target.
func (g *VideoGenerator) SubmitJob(ctx context.Context, req *model.GenerationRequest) (string, error) {
	prompt := req.Prompt
	if visual := req.Style["visual_style"]; visual != "" {
		prompt = fmt.Sprintf("%s, %s style", prompt, visual)
	}

	body, err := json.Marshal(map[string]any{
		"text_prompt": prompt,
		"width":       g.width,
		"height":      g.height,
		"frame_rate":  g.fps,
		"num_frames":  int(req.TargetDuration * float64(g.fps)),
		"seconds":     req.TargetDuration,
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/text_to_video", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("text_to_video returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode task response: %w", err)
	}
	return payload.ID, nil
}

// JobState implements RemoteJobClient.
func (g *VideoGenerator) JobState(ctx context.Context, id string) (*JobState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/tasks/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task status returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status string `json:"status"`
		Output struct {
			URL string `json:"url"`
		} `json:"output"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode task status: %w", err)
	}

	state := &JobState{ResultURL: payload.Output.URL, FailureReason: payload.Error}
	switch payload.Status {
	case "PENDING", "THROTTLED", "pending":
		state.Status = JobPending
	case "RUNNING", "running", "processing":
		state.Status = JobRunning
	case "SUCCEEDED", "succeeded", "completed":
		state.Status = JobCompleted
	case "FAILED", "failed", "error":
		state.Status = JobFailed
	default:
		state.Status = JobRunning
	}
	return state, nil
}

// Generate runs the full submit/poll/fetch cycle and writes the clip to the
// request's output path.
func (g *VideoGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.StageResult, error) {
	handle, err := g.poller.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	resultURL, err := g.poller.PollUntilDone(ctx, handle)
	if err != nil {
		return nil, err
	}

	dl, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}
	if err := g.http.download(dl, req.OutputPath); err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}

	return &model.StageResult{
		Path: req.OutputPath,
		Metadata: map[string]any{
			"job_id":             handle.ID,
			"width":              g.width,
			"height":             g.height,
			"frame_rate":         g.fps,
			"requested_duration": req.TargetDuration,
		},
	}, nil
}
