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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// Voice describes one entry of the speech service's voice catalog.
type Voice struct {
	VoiceID string            `json:"voice_id"`
	Name    string            `json:"name"`
	Labels  map[string]string `json:"labels"`
}

// SpeechSynthesizer converts script text to a voiceover through a
// synchronous text-to-speech HTTP API. Voice selection is an adapter
// concern; the pipeline core only sees the resulting artifact.
type SpeechSynthesizer struct {
	apiKey          string
	baseURL         string
	modelID         string
	defaultVoiceID  string
	stability       float64
	similarityBoost float64
	http            *ThrottledClient

	voices []Voice // catalog cache, filled on first use
}

// SpeechConfig carries the synthesizer's construction parameters.
type SpeechConfig struct {
	APIKey          string
	BaseURL         string
	ModelID         string
	DefaultVoiceID  string
	Stability       float64
	SimilarityBoost float64
}

// NewSpeechSynthesizer builds the adapter from explicit configuration.
func NewSpeechSynthesizer(cfg SpeechConfig) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		modelID:         cfg.ModelID,
		defaultVoiceID:  cfg.DefaultVoiceID,
		stability:       cfg.Stability,
		similarityBoost: cfg.SimilarityBoost,
		http:            NewThrottledClient(DefaultRequestsPerSecond),
	}
}

// DefaultRequestsPerSecond bounds adapter traffic when no explicit rate is
// configured.
const DefaultRequestsPerSecond = 2

// Voices returns the voice catalog, fetching it once and caching.
func (s *SpeechSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	if s.voices != nil {
		return s.voices, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: voice catalog request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteGenerationError{Service: "speech", Reason: fmt.Sprintf("voice catalog returned status %d", resp.StatusCode)}
	}

	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("speech: failed to decode voice catalog: %w", err)
	}
	s.voices = payload.Voices
	return s.voices, nil
}

// FindVoice returns the first catalog entry matching all criteria. Name
// matches against the voice name; any other key matches against the labels
// (gender, accent, age). Returns false when nothing matches.
func (s *SpeechSynthesizer) FindVoice(ctx context.Context, criteria map[string]string) (Voice, bool, error) {
	voices, err := s.Voices(ctx)
	if err != nil {
		return Voice{}, false, err
	}
	for _, v := range voices {
		match := true
		for key, want := range criteria {
			var got string
			if key == "name" {
				got = v.Name
			} else {
				got = v.Labels[key]
			}
			if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
				match = false
				break
			}
		}
		if match {
			return v, true, nil
		}
	}
	return Voice{}, false, nil
}

// resolveVoice picks the voice for a request: an explicit id wins, then the
// configured default, then the first catalog entry. Falling back to a
// default rather than failing is the expected policy when a requested voice
// is absent.
func (s *SpeechSynthesizer) resolveVoice(ctx context.Context, style map[string]string) (string, error) {
	if id := style["voice_id"]; id != "" {
		return id, nil
	}
	if name := style["voice_name"]; name != "" {
		if v, ok, err := s.FindVoice(ctx, map[string]string{"name": name}); err != nil {
			return "", err
		} else if ok {
			return v.VoiceID, nil
		}
	}
	if s.defaultVoiceID != "" {
		return s.defaultVoiceID, nil
	}
	voices, err := s.Voices(ctx)
	if err != nil {
		return "", err
	}
	if len(voices) == 0 {
		return "", &MissingResultError{Service: "speech"}
	}
	return voices[0].VoiceID, nil
}

// Generate synthesizes speech for the script in req.Prompt and writes the
// audio to the request's output path. The measured duration of this artifact
// becomes the run's authoritative timeline, but measuring is the caller's
// job, not the adapter's.
func (s *SpeechSynthesizer) Generate(ctx context.Context, req *model.GenerationRequest) (*model.StageResult, error) {
	voiceID, err := s.resolveVoice(ctx, req.Style)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"text":     req.Prompt,
		"model_id": s.modelID,
		"voice_settings": map[string]float64{
			"stability":        s.stability,
			"similarity_boost": s.similarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, &RemoteGenerationError{Service: "speech", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RemoteGenerationError{
			Service: "speech",
			Reason:  fmt.Sprintf("synthesis returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, err
	}
	out, err := os.Create(req.OutputPath)
	if err != nil {
		return nil, err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return nil, fmt.Errorf("speech: failed to write audio to %s: %w", req.OutputPath, err)
	}

	return &model.StageResult{
		Path: req.OutputPath,
		Metadata: map[string]any{
			"voice_id":         voiceID,
			"model_id":         s.modelID,
			"stability":        s.stability,
			"similarity_boost": s.similarityBoost,
		},
	}, nil
}
