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

package media

import (
	"context"
	"fmt"
	"strings"
)

const (
	overlayFontSize = 40
	overlayMargin   = 50
)

// escapeDrawText escapes the characters ffmpeg's drawtext filter treats
// specially inside a text= value.
func escapeDrawText(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}

// BurnCaptions renders the script text onto the video as a boxed caption
// near the bottom edge, centered horizontally. The audio track is copied
// through untouched.
func (t *Toolchain) BurnCaptions(ctx context.Context, videoPath, text, outputPath string) error {
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:box=1:boxcolor=black@0.6:x=(w-text_w)/2:y=h-text_h-%d",
		escapeDrawText(text), overlayFontSize, overlayMargin)
	if len(t.fontFile) > 0 {
		filter += fmt.Sprintf(":fontfile=%s", t.fontFile)
	}
	return t.run(ctx,
		"-i", videoPath,
		"-vf", filter,
		"-c:a", "copy",
		outputPath)
}
