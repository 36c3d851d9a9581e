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

// Package testutil supports the test suite: test configuration loading, an
// otel-bridged logger, and sample run-request payloads.
package testutil

import (
	"log"
	"log/slog"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
)

// state caches the test configuration so the TOML files are read once per
// test binary.
var state = struct{ config *config.Config }{}

// HandleErr fails the test on a non-nil error. Convenience for the common
// setup steps where any error is fatal to the test's premise.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Logger returns a slog.Logger bridged onto the global OpenTelemetry logger
// provider, named after the test.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// GetTestRunRequestText returns the JSON payload of a Pub/Sub run request,
// as a publisher would send it.
func GetTestRunRequestText() string {
	return `{
  "topic": "the history of the rubber duck",
  "name": "rubber-duck-demo",
  "duration_seconds": 30,
  "style": {
    "voice_name": "rachel",
    "genre": "lo-fi",
    "mood": "playful"
  }
}`
}

// SetupOS points the configuration loader at the test TOML files in
// configs/, selecting the ".env.test.toml" overrides.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		if err := config.LoadConfig(cfg); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = cfg
	}
	return state.config
}
