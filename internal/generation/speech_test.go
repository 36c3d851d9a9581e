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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// newSpeechServer fakes the text-to-speech API: a voice catalog plus a
// synthesis endpoint that returns canned audio bytes.
func newSpeechServer(t *testing.T, voices []Voice, audio []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/voices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"voices": voices})
	})
	mux.HandleFunc("POST /v1/text-to-speech/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(audio)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testVoices() []Voice {
	return []Voice{
		{VoiceID: "v-1", Name: "Rachel", Labels: map[string]string{"gender": "female", "accent": "american"}},
		{VoiceID: "v-2", Name: "Arthur", Labels: map[string]string{"gender": "male", "accent": "british"}},
	}
}

func TestFindVoiceMatchesNameAndLabels(t *testing.T) {
	srv := newSpeechServer(t, testVoices(), nil)
	s := NewSpeechSynthesizer(SpeechConfig{APIKey: "k", BaseURL: srv.URL})

	v, ok, err := s.FindVoice(context.Background(), map[string]string{"name": "rachel"})
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v-1", v.VoiceID)

	v, ok, err = s.FindVoice(context.Background(), map[string]string{"gender": "male", "accent": "brit"})
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v-2", v.VoiceID)

	_, ok, err = s.FindVoice(context.Background(), map[string]string{"accent": "australian"})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveVoicePrecedence(t *testing.T) {
	srv := newSpeechServer(t, testVoices(), nil)

	// An explicit id wins without touching the catalog.
	s := NewSpeechSynthesizer(SpeechConfig{APIKey: "k", BaseURL: srv.URL, DefaultVoiceID: "dflt"})
	id, err := s.resolveVoice(context.Background(), map[string]string{"voice_id": "explicit"})
	assert.NoError(t, err)
	assert.Equal(t, "explicit", id)

	// A name is looked up in the catalog.
	id, err = s.resolveVoice(context.Background(), map[string]string{"voice_name": "arthur"})
	assert.NoError(t, err)
	assert.Equal(t, "v-2", id)

	// An unknown name falls back to the configured default.
	id, err = s.resolveVoice(context.Background(), map[string]string{"voice_name": "nobody"})
	assert.NoError(t, err)
	assert.Equal(t, "dflt", id)

	// Without a default, the first catalog entry serves.
	s = NewSpeechSynthesizer(SpeechConfig{APIKey: "k", BaseURL: srv.URL})
	id, err = s.resolveVoice(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "v-1", id)
}

func TestSpeechGenerateWritesAudio(t *testing.T) {
	audio := []byte("ID3-not-really-audio")
	srv := newSpeechServer(t, testVoices(), audio)
	s := NewSpeechSynthesizer(SpeechConfig{
		APIKey:  "k",
		BaseURL: srv.URL,
		ModelID: "model-x",
	})

	out := filepath.Join(t.TempDir(), "audio", "vo.mp3")
	result, err := s.Generate(context.Background(), &model.GenerationRequest{
		Prompt:     "hello world",
		Style:      map[string]string{"voice_id": "v-1"},
		OutputPath: out,
	})
	assert.NoError(t, err)
	assert.Equal(t, out, result.Path)
	assert.Equal(t, "v-1", result.Metadata["voice_id"])

	written, err := os.ReadFile(out)
	assert.NoError(t, err)
	assert.Equal(t, audio, written)
}

func TestSpeechGenerateSurfacesVendorErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/text-to-speech/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "voice not found", http.StatusUnprocessableEntity)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewSpeechSynthesizer(SpeechConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := s.Generate(context.Background(), &model.GenerationRequest{
		Prompt:     "hello",
		Style:      map[string]string{"voice_id": "v-1"},
		OutputPath: filepath.Join(t.TempDir(), "vo.mp3"),
	})

	var remote *RemoteGenerationError
	assert.ErrorAs(t, err, &remote)
	assert.True(t, strings.Contains(remote.Reason, "422"))
}
