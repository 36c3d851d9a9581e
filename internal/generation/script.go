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
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// WordsPerMinute is the average speaking rate used to estimate how long a
// script will take to read aloud. The estimate is recorded as metadata only
// and never enforced; the voiceover's measured duration is what the rest of
// the pipeline keys off.
const WordsPerMinute = 150.0

const scriptPromptTemplate = `Write a script for a short-form vertical video about: %s.
The script should take roughly %.0f seconds to read aloud at a natural pace.
Open with a hook that grabs attention in the first sentence, deliver the
content conversationally, and close with a short call to action.
Return only the spoken text, no stage directions or headings.`

// ScriptWriter generates the spoken script for a short using a Gemini text
// model. It is the one synchronous adapter backed by an SDK rather than a
// polled HTTP job.
type ScriptWriter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewScriptWriter builds the adapter from explicit configuration; the API
// key arrives here, not via ambient environment lookups.
func NewScriptWriter(ctx context.Context, cfg config.Script) (*ScriptWriter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	m := client.GenerativeModel(cfg.Model)
	m.SetTemperature(cfg.Temperature)
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(cfg.MaxTokens)
	}
	return &ScriptWriter{client: client, model: m}, nil
}

// Close releases the underlying client connection.
func (w *ScriptWriter) Close() error {
	return w.client.Close()
}

// EstimateSpokenSeconds converts a word count to an approximate reading time
// at the standard speaking rate.
func EstimateSpokenSeconds(wordCount int) float64 {
	return float64(wordCount) / WordsPerMinute * 60.0
}

// Generate produces the script text, writes it to the request's output path,
// and reports word-count and estimated-duration metadata. The topic arrives
// in req.Prompt; optional keywords in req.Style["keywords"] are folded into
// the prompt the way the topic enrichment always worked.
func (w *ScriptWriter) Generate(ctx context.Context, req *model.GenerationRequest) (*model.StageResult, error) {
	topic := req.Prompt
	if keywords := req.Style["keywords"]; keywords != "" {
		topic = fmt.Sprintf("%s (including keywords: %s)", topic, keywords)
	}
	prompt := fmt.Sprintf(scriptPromptTemplate, topic, req.TargetDuration)

	resp, err := w.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &RemoteGenerationError{Service: "script", Reason: err.Error()}
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	script := strings.TrimSpace(sb.String())
	if script == "" {
		return nil, &MissingResultError{Service: "script"}
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.OutputPath, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write script to %s: %w", req.OutputPath, err)
	}

	wordCount := len(strings.Fields(script))
	return &model.StageResult{
		Path: req.OutputPath,
		Metadata: map[string]any{
			"topic":              req.Prompt,
			"word_count":         wordCount,
			"target_duration":    req.TargetDuration,
			"estimated_duration": EstimateSpokenSeconds(wordCount),
		},
	}, nil
}
