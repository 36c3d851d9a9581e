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
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the narration voices the speech service offers",
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	speech := generation.NewSpeechSynthesizer(generation.SpeechConfig{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
	})

	voices, err := speech.Voices(cmd.Context())
	if err != nil {
		return err
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tGENDER\tACCENT")
	for _, v := range voices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.VoiceID, v.Labels["gender"], v.Labels["accent"])
	}
	return w.Flush()
}
