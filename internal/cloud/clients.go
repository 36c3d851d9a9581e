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

// Package cloud holds the optional Google Cloud integrations: archiving
// finished runs to GCS with signed download links, triggering runs from
// Pub/Sub messages, and recording run history in BigQuery. The pipeline core
// never depends on this package; a deployment without GCP credentials simply
// leaves these features off.
package cloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
)

// ServiceClients bundles the GCP clients the server shares across
// integrations. One set is created at startup and closed at shutdown.
type ServiceClients struct {
	Storage  *storage.Client
	BigQuery *bigquery.Client
	PubSub   *pubsub.Client
}

// NewServiceClients dials the GCP services using ambient application default
// credentials.
func NewServiceClients(ctx context.Context, projectID string) (*ServiceClients, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	bigqueryClient, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	pubsubClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return &ServiceClients{
		Storage:  storageClient,
		BigQuery: bigqueryClient,
		PubSub:   pubsubClient,
	}, nil
}

// Close releases every client. Errors are collected but the shutdown keeps
// going; a half-closed client set is not worth aborting over.
func (s *ServiceClients) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{s.Storage, s.BigQuery, s.PubSub} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
