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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
)

func musicTestConfig(baseURL string) config.Music {
	return config.Music{
		APIKey:              "test-key",
		BaseURL:             baseURL,
		PollIntervalSeconds: 1,
		MaxPollAttempts:     10,
		RequestsPerSecond:   1000,
	}
}

func TestMusicComposerGeneratesTrack(t *testing.T) {
	track := []byte("fake-mp3-bytes")
	var polls atomic.Int32

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["prompt"], "instrumental, no vocals")
		assert.Contains(t, body["prompt"], "lo-fi")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "gen-1"})
	})
	mux.HandleFunc("GET /v1/generations/gen-1", func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]string{"status": "streaming"}
		if polls.Add(1) >= 2 {
			resp = map[string]string{"status": "complete", "audio_url": srv.URL + "/files/gen-1.mp3"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /files/gen-1.mp3", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(track)
	})

	composer := generation.NewMusicComposer(musicTestConfig(srv.URL))
	out := filepath.Join(t.TempDir(), "music", "track.mp3")

	result, err := composer.Generate(context.Background(), &model.GenerationRequest{
		Prompt:         "background music for a short video about ducks",
		Style:          map[string]string{"genre": "lo-fi", "mood": "playful"},
		TargetDuration: 30,
		OutputPath:     out,
	})
	assert.NoError(t, err)
	assert.Equal(t, "gen-1", result.Metadata["job_id"])
	assert.EqualValues(t, 2, polls.Load())

	written, err := os.ReadFile(out)
	assert.NoError(t, err)
	assert.Equal(t, track, written)
}

func TestMusicComposerReportsVendorFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "gen-2"})
	})
	mux.HandleFunc("GET /v1/generations/gen-2", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "prompt rejected"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	composer := generation.NewMusicComposer(musicTestConfig(srv.URL))
	_, err := composer.Generate(context.Background(), &model.GenerationRequest{
		Prompt:     "anything",
		OutputPath: filepath.Join(t.TempDir(), "track.mp3"),
	})

	var remote *generation.RemoteGenerationError
	assert.ErrorAs(t, err, &remote)
	assert.Equal(t, "prompt rejected", remote.Reason)
	assert.Equal(t, "music", remote.Service)
}

func TestMusicComposerWrapsRejectedSubmission(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	composer := generation.NewMusicComposer(musicTestConfig(srv.URL))
	_, err := composer.Generate(context.Background(), &model.GenerationRequest{
		Prompt:     "anything",
		OutputPath: filepath.Join(t.TempDir(), "track.mp3"),
	})

	var sub *generation.SubmissionError
	assert.ErrorAs(t, err, &sub)
}
