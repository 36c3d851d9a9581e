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

// The shorts command is the local CLI for the pipeline: it creates a short
// for a topic end to end, without the API server or any GCP integration.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "shorts",
	Short: "Generate short-form vertical videos from a topic",
	Long: `shorts turns a one-line topic into a finished vertical video:
script, voiceover, background music, and generated visuals, assembled
and captioned locally with ffmpeg.

Configuration is read from TOML files; see configs/.env.toml.`,
	SilenceUsage: true,
}

var configDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "Directory holding .env.toml configuration files")
}

// loadConfig points the loader at the chosen config directory and reads the
// hierarchy.
func loadConfig() *config.Config {
	if err := os.Setenv(config.EnvConfigFilePrefix, configDir); err != nil {
		log.Fatalf("failed to set config prefix: %v", err)
	}
	cfg := config.NewConfig()
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	return cfg
}

func main() {
	telemetry.SetupLogging()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
