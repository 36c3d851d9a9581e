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

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/cloud"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/workflow"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/media"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config   *config.Config
	cloud    *cloud.ServiceClients
	runner   *runService
	archiver *cloud.RunArchiver
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(config.EnvConfigRuntime) == "" {
		err = os.Setenv(config.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment: %v\n", err)
		}
		cfg := config.NewConfig()
		if err := config.LoadConfig(cfg); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = cfg
	}
	return state.config
}

// runService wraps the workflow with the optional post-run cloud steps:
// archiving the finished video to GCS and recording the run in BigQuery.
// Both are best-effort; the manifest on local disk is the source of truth.
type runService struct {
	workflow *workflow.ShortsCreatorWorkflow
	archiver *cloud.RunArchiver
	history  *cloud.RunHistoryWriter
}

func (s *runService) CreateShort(ctx context.Context, opts workflow.CreateShortOptions) (*model.Manifest, error) {
	started := time.Now()
	manifest, err := s.workflow.CreateShort(ctx, opts)

	if s.history != nil {
		rec := cloud.NewRunRecord(uuid.NewString(), opts.Name, opts.Topic, opts.TargetDuration, started, manifest, err)
		if histErr := s.history.Write(ctx, rec); histErr != nil {
			slog.Error("failed to record run history", "error", histErr)
		}
	}
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		toArchive := map[string]string{}
		if final, ok := manifest.Files["final_video"]; ok {
			toArchive["final_video"] = final
		}
		if _, archErr := s.archiver.Archive(ctx, opts.Name, toArchive); archErr != nil {
			slog.Error("failed to archive run", "error", archErr)
		}
	}
	return manifest, nil
}

// InitState builds the workflow from the real adapters and, when a project
// is configured, the GCP integrations. A config without a project id runs
// the pipeline purely locally.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	scriptWriter, err := generation.NewScriptWriter(ctx, cfg.Script)
	if err != nil {
		panic(err)
	}
	speech := generation.NewSpeechSynthesizer(generation.SpeechConfig{
		APIKey:          cfg.Speech.APIKey,
		BaseURL:         cfg.Speech.BaseURL,
		ModelID:         cfg.Speech.ModelID,
		DefaultVoiceID:  cfg.Speech.DefaultVoiceID,
		Stability:       cfg.Speech.Stability,
		SimilarityBoost: cfg.Speech.SimilarityBoost,
	})
	music := generation.NewMusicComposer(cfg.Music)
	video := generation.NewVideoGenerator(cfg.Video)

	tools := media.NewToolchain(cfg.Media)
	reconciler := media.NewReconciler(tools)

	wf := workflow.NewShortsCreatorWorkflow(
		cfg.Application.OutputDir,
		cfg.Music.VolumeOffsetDB,
		true,
		workflow.Stages{
			Script:  scriptWriter,
			Speech:  speech,
			Music:   music,
			Video:   video,
			Prober:  tools,
			Matcher: reconciler,
			Muxer:   tools,
			Burner:  tools,
		})

	state.runner = &runService{workflow: wf}

	if cfg.Application.GoogleProjectId == "" {
		slog.Info("no google project configured, running local-only")
		return
	}

	clients, err := cloud.NewServiceClients(ctx, cfg.Application.GoogleProjectId)
	if err != nil {
		panic(err)
	}
	state.cloud = clients

	if cfg.Storage.ArchiveBucket != "" {
		archiver, err := cloud.NewRunArchiver(ctx, clients.Storage, cfg.Storage.ArchiveBucket, cfg.Storage.SignerServiceAccountEmail)
		if err != nil {
			panic(err)
		}
		if ok, err := archiver.CanArchive(ctx); err != nil || !ok {
			slog.Warn("archive bucket not writable, archiving disabled", "bucket", cfg.Storage.ArchiveBucket, "error", err)
		} else {
			state.archiver = archiver
			state.runner.archiver = archiver
		}
	}

	if cfg.RunHistory.Dataset != "" && cfg.RunHistory.Table != "" {
		state.runner.history = cloud.NewRunHistoryWriter(clients.BigQuery, cfg.RunHistory.Dataset, cfg.RunHistory.Table)
	}

	SetupListeners(ctx, cfg)
}

// SetupListeners starts a Pub/Sub run-request listener per configured
// subscription.
func SetupListeners(ctx context.Context, cfg *config.Config) {
	for name, sub := range cfg.TopicSubscriptions {
		listener := cloud.NewRunRequestListener(state.cloud.PubSub, sub.Name, state.runner, slog.Default().With("listener", name))
		listener.Listen(ctx)
	}
}
