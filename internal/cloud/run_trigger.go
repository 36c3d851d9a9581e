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

package cloud

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/workflow"
)

// RunRequest is the JSON payload a Pub/Sub message carries to request a run.
type RunRequest struct {
	Topic           string            `json:"topic"`
	Name            string            `json:"name"`
	DurationSeconds float64           `json:"duration_seconds"`
	Style           map[string]string `json:"style"`
}

// RunLauncher is the slice of the workflow the listener needs.
type RunLauncher interface {
	CreateShort(ctx context.Context, opts workflow.CreateShortOptions) (*model.Manifest, error)
}

// RunRequestListener subscribes to a Pub/Sub topic and launches one pipeline
// run per message. Every message is acked exactly once, whether the run
// succeeds or not: a pipeline run is expensive and not idempotent at the
// vendor-billing level, so failed requests are logged and left for an
// operator to resubmit rather than redelivered automatically.
type RunRequestListener struct {
	subscription *pubsub.Subscription
	launcher     RunLauncher
	logger       *slog.Logger
}

// NewRunRequestListener builds a listener on the given subscription.
func NewRunRequestListener(client *pubsub.Client, subscriptionID string, launcher RunLauncher, logger *slog.Logger) *RunRequestListener {
	return &RunRequestListener{
		subscription: client.Subscription(subscriptionID),
		launcher:     launcher,
		logger:       logger,
	}
}

// Listen starts receiving in a background goroutine. Canceling ctx stops the
// listener; runs already in flight finish on their own contexts.
func (l *RunRequestListener) Listen(ctx context.Context) {
	l.logger.Info("listening for run requests", "subscription", l.subscription.String())

	go func() {
		tracer := otel.Tracer("run-request-listener")

		err := l.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-run-request")
			defer span.End()
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			// The message is consumed either way; see the type comment.
			defer msg.Ack()

			var req RunRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				span.SetStatus(codes.Error, "malformed run request")
				l.logger.Error("discarding malformed run request", "error", err)
				return
			}

			manifest, err := l.launcher.CreateShort(spanCtx, workflow.CreateShortOptions{
				Topic:          req.Topic,
				Name:           req.Name,
				TargetDuration: req.DurationSeconds,
				Style:          req.Style,
			})
			if err != nil {
				span.SetStatus(codes.Error, "run failed")
				l.logger.Error("run request failed", "topic", req.Topic, "error", err)
				return
			}

			span.SetStatus(codes.Ok, "run completed")
			l.logger.Info("run request completed", "topic", manifest.Topic, "duration", manifest.Duration)
		})
		if err != nil {
			l.logger.Error("run request listener stopped", "error", err)
		}
	}()
}
