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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/workflow"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/media"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a short for a topic",
	Long: `Create runs the full pipeline for one topic and prints the path of
the resulting manifest.

Examples:
  shorts create --topic "the history of the rubber duck"
  shorts create --topic "why bees dance" --duration 45 --voice rachel --genre lo-fi
  shorts create --topic "volcano facts" --no-captions --output-dir ./out`,
	RunE: runCreate,
}

var (
	createTopic       string
	createName        string
	createDuration    float64
	createVoice       string
	createGenre       string
	createMood        string
	createVisualStyle string
	createKeywords    string
	createNoCaptions  bool
	createOutputDir   string
)

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createTopic, "topic", "t", "", "Topic of the short (required)")
	createCmd.Flags().StringVar(&createName, "name", "", "Run name; derived from the topic when empty")
	createCmd.Flags().Float64VarP(&createDuration, "duration", "d", 30, "Requested length in seconds")
	createCmd.Flags().StringVar(&createVoice, "voice", "", "Voice name to narrate with")
	createCmd.Flags().StringVar(&createGenre, "genre", "", "Background music genre")
	createCmd.Flags().StringVar(&createMood, "mood", "", "Background music mood")
	createCmd.Flags().StringVar(&createVisualStyle, "visual-style", "", "Visual style hint for the video generator")
	createCmd.Flags().StringVar(&createKeywords, "keywords", "", "Comma-separated keywords to fold into the script")
	createCmd.Flags().BoolVar(&createNoCaptions, "no-captions", false, "Skip burning the script onto the video")
	createCmd.Flags().StringVarP(&createOutputDir, "output-dir", "o", "", "Override the configured output directory")
	_ = createCmd.MarkFlagRequired("topic")
}

func runCreate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	outputDir := cfg.Application.OutputDir
	if createOutputDir != "" {
		outputDir = createOutputDir
	}

	scriptWriter, err := generation.NewScriptWriter(cmd.Context(), cfg.Script)
	if err != nil {
		return err
	}
	defer scriptWriter.Close()

	speech := generation.NewSpeechSynthesizer(generation.SpeechConfig{
		APIKey:          cfg.Speech.APIKey,
		BaseURL:         cfg.Speech.BaseURL,
		ModelID:         cfg.Speech.ModelID,
		DefaultVoiceID:  cfg.Speech.DefaultVoiceID,
		Stability:       cfg.Speech.Stability,
		SimilarityBoost: cfg.Speech.SimilarityBoost,
	})
	tools := media.NewToolchain(cfg.Media)

	wf := workflow.NewShortsCreatorWorkflow(
		outputDir,
		cfg.Music.VolumeOffsetDB,
		!createNoCaptions,
		workflow.Stages{
			Script:  scriptWriter,
			Speech:  speech,
			Music:   generation.NewMusicComposer(cfg.Music),
			Video:   generation.NewVideoGenerator(cfg.Video),
			Prober:  tools,
			Matcher: media.NewReconciler(tools),
			Muxer:   tools,
			Burner:  tools,
		})

	style := map[string]string{}
	for key, value := range map[string]string{
		"voice_name":   createVoice,
		"genre":        createGenre,
		"mood":         createMood,
		"visual_style": createVisualStyle,
		"keywords":     createKeywords,
	} {
		if value != "" {
			style[key] = value
		}
	}

	manifest, err := wf.CreateShort(cmd.Context(), workflow.CreateShortOptions{
		Topic:          createTopic,
		Name:           createName,
		TargetDuration: createDuration,
		Style:          style,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created %s (%.1fs)\n", manifest.Files["final_video"], manifest.Duration)
	return nil
}
