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

// Package workflow defines the high-level orchestrations that combine stage
// commands into coherent pipelines. This file implements the shorts creation
// workflow: script, voiceover, parallel music and video generation, mux,
// caption overlay, and manifest, executed as a single fail-fast chain.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/commands"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// Stage command names, in pipeline order. Error records on the chain context
// are keyed by these, which is how a failed run gets attributed to a stage.
const (
	StageScript    = "generate-script"
	StageVoiceover = "synthesize-voiceover"
	StageFanOut    = "generate-media"
	StageMusic     = "generate-music"
	StageVideo     = "generate-video"
	StageMux       = "mux-video"
	StageOverlay   = "burn-captions"
	StageManifest  = "write-manifest"
)

// stageOrder is the attribution order for failures: when several commands
// have recorded errors, the earliest stage wins.
var stageOrder = []string{
	StageScript, StageVoiceover, StageMusic, StageVideo, StageFanOut,
	StageMux, StageOverlay, StageManifest,
}

// Stages bundles the adapters and media tools the workflow wires into its
// commands. Tests substitute fakes here; production wiring passes the real
// generation adapters and the ffmpeg toolchain.
type Stages struct {
	Script  commands.Generator
	Speech  commands.Generator
	Music   commands.Generator
	Video   commands.Generator
	Prober  commands.DurationProber
	Matcher commands.DurationMatcher
	Muxer   commands.Muxer
	Burner  commands.CaptionBurner
}

// CreateShortOptions are the per-run parameters.
type CreateShortOptions struct {
	// Topic is the subject of the short. Required.
	Topic string
	// Name identifies the run and prefixes every artifact file name. When
	// empty a name is derived from the topic plus a random suffix.
	Name string
	// TargetDuration is the requested length in seconds. It steers the
	// script and is superseded by the voiceover's measured duration.
	TargetDuration float64
	// Style carries adapter hints: voice_id, genre, mood, tempo,
	// visual_style, keywords.
	Style map[string]string
}

// ShortsCreatorWorkflow turns a topic into a finished vertical video plus
// its manifest. The underlying chain is built once; per-run state travels on
// the chain context and the PipelineRun, so one workflow instance serves
// concurrent runs.
type ShortsCreatorWorkflow struct {
	cor.BaseCommand
	outputDir      string
	volumeOffsetDB float64
	captions       bool
	chain          cor.Chain
}

// NewShortsCreatorWorkflow builds the workflow and its command chain.
func NewShortsCreatorWorkflow(outputDir string, volumeOffsetDB float64, captions bool, stages Stages) *ShortsCreatorWorkflow {
	w := &ShortsCreatorWorkflow{
		BaseCommand:    *cor.NewBaseCommand("shorts-creator-pipeline"),
		outputDir:      outputDir,
		volumeOffsetDB: volumeOffsetDB,
		captions:       captions,
	}
	w.initializeChain(stages)
	return w
}

// initializeChain assembles the command sequence. Music and video are
// independent once the voiceover's duration is known, so they run inside a
// fan-out command; everything else is strictly ordered.
func (w *ShortsCreatorWorkflow) initializeChain(stages Stages) {
	out := cor.NewBaseChain(w.GetName())

	out.AddCommand(commands.NewScriptStage(StageScript, stages.Script, w.outputDir))
	out.AddCommand(commands.NewVoiceoverStage(StageVoiceover, stages.Speech, stages.Prober, w.outputDir))
	out.AddCommand(commands.NewFanOutStage(StageFanOut,
		commands.NewMusicStage(StageMusic, stages.Music, stages.Matcher, w.volumeOffsetDB, w.outputDir),
		commands.NewVideoStage(StageVideo, stages.Video, stages.Prober, w.outputDir),
	))
	out.AddCommand(commands.NewMuxStage(StageMux, stages.Muxer, w.outputDir))
	out.AddCommand(commands.NewOverlayStage(StageOverlay, stages.Burner, stages.Prober, w.captions, w.outputDir))
	out.AddCommand(commands.NewManifestStage(StageManifest, w.outputDir))

	w.chain = out
}

// Execute runs the chain. Most callers want CreateShort instead, which also
// prepares the run and translates chain errors.
func (w *ShortsCreatorWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// CreateShort runs the full pipeline for one topic and returns the finished
// run's manifest. On failure the error is a *StageFailure naming the stage
// that aborted the run; artifacts produced by earlier stages stay on disk
// for inspection, and no manifest is written.
func (w *ShortsCreatorWorkflow) CreateShort(ctx context.Context, opts CreateShortOptions) (*model.Manifest, error) {
	if strings.TrimSpace(opts.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	name := opts.Name
	if name == "" {
		name = runName(opts.Topic)
	}
	if err := w.ensureLayout(); err != nil {
		return nil, err
	}

	run := model.NewPipelineRun(uuid.NewString(), name, opts.Topic, opts.TargetDuration)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.SetRun(run)
	if opts.Style != nil {
		chainCtx.Add(commands.StyleHintsKey, opts.Style)
	}
	defer chainCtx.Close()

	w.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return nil, w.firstFailure(chainCtx.GetErrors())
	}

	manifest, ok := chainCtx.Get(cor.CtxIn).(*model.Manifest)
	if !ok {
		return nil, &StageFailure{Stage: StageManifest, Err: fmt.Errorf("chain completed without a manifest")}
	}
	return manifest, nil
}

// ensureLayout creates the per-family output subdirectories.
func (w *ShortsCreatorWorkflow) ensureLayout() error {
	for _, dir := range []string{
		commands.TextDir, commands.AudioDir, commands.MusicDir, commands.VideoDir, commands.FinalDir,
	} {
		if err := os.MkdirAll(filepath.Join(w.outputDir, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// firstFailure maps the chain's error records to a StageFailure, attributing
// the run's abort to the earliest failed stage. A fan-out sibling that was
// interrupted when another stage failed records only context.Canceled, so a
// substantive error from any stage takes precedence over cancellations; the
// cancellation itself is attributed only when no stage holds a real cause.
func (w *ShortsCreatorWorkflow) firstFailure(errs map[string]error) error {
	for _, stage := range stageOrder {
		if err, ok := errs[stage]; ok && !isCancellation(err) {
			return &StageFailure{Stage: stage, Err: err}
		}
	}
	for _, stage := range stageOrder {
		if err, ok := errs[stage]; ok {
			return &StageFailure{Stage: stage, Err: err}
		}
	}
	for stage, err := range errs {
		return &StageFailure{Stage: stage, Err: err}
	}
	return fmt.Errorf("chain failed without recording an error")
}

// isCancellation reports whether an error is the propagation of a canceled or
// expired Go context rather than a stage's own failure.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// runName derives a file-system-safe run name from the topic, suffixed with
// a random fragment so repeated runs on one topic never collide.
func runName(topic string) string {
	slug := strings.ToLower(topic)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return fmt.Sprintf("%s-%s", slug, uuid.NewString()[:8])
}
