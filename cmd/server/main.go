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
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/commands"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/workflow"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		slog.Error("failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("tracing initialized")

	InitState(ctx)
	slog.Info("state initialized")

	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		ShortsRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("server ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown failed", "error", err)
	}
	log.Println("server exiting")
}

// createShortRequest is the POST body for requesting a run.
type createShortRequest struct {
	Topic           string            `json:"topic" binding:"required"`
	Name            string            `json:"name"`
	DurationSeconds float64           `json:"duration_seconds"`
	Style           map[string]string `json:"style"`
}

// ShortsRouter sets up the run submission and status routes. Creation is
// asynchronous: the POST returns 202 with the run name immediately, and the
// run's manifest appears under GET once the pipeline finishes.
func ShortsRouter(r *gin.RouterGroup) {
	shorts := r.Group("/shorts")
	{
		shorts.POST("", func(c *gin.Context) {
			var req createShortRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			name := req.Name
			if name == "" {
				name = fmt.Sprintf("short-%s", uuid.NewString()[:8])
			}

			// The run outlives the request, so it gets its own context.
			go func() {
				runCtx := context.Background()
				if _, err := state.runner.CreateShort(runCtx, workflow.CreateShortOptions{
					Topic:          req.Topic,
					Name:           name,
					TargetDuration: req.DurationSeconds,
					Style:          req.Style,
				}); err != nil {
					slog.Error("run failed", "name", name, "error", err)
				}
			}()

			c.JSON(http.StatusAccepted, gin.H{"name": name, "status": "accepted"})
		})

		shorts.GET("/:name", func(c *gin.Context) {
			name := c.Param("name")
			if strings.ContainsAny(name, "/\\") {
				c.Status(http.StatusBadRequest)
				return
			}
			manifestPath := filepath.Join(state.config.Application.OutputDir, commands.FinalDir, name+".json")
			manifest, err := model.LoadManifest(manifestPath)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "no finished run with that name"})
				return
			}

			resp := gin.H{"manifest": manifest}
			if state.archiver != nil {
				object := fmt.Sprintf("%s/%s", name, filepath.Base(manifest.Files["final_video"]))
				if url, err := state.archiver.SignedDownloadURL(object, 0); err == nil {
					resp["video_url"] = url
				}
			}
			c.JSON(http.StatusOK, resp)
		})
	}
}
