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
)

// MixAudio blends a voiceover and a background track into a single AAC
// soundtrack. The first input wins on length, so the voiceover defines the
// mixed track's timeline and a music bed that runs long is simply cut off.
// Relative levels are expected to be set beforehand with AdjustVolume;
// normalize=0 stops amix from rescaling the inputs, which would undo them.
func (t *Toolchain) MixAudio(ctx context.Context, voicePath, musicPath, outputPath string) error {
	return t.run(ctx,
		"-i", voicePath,
		"-i", musicPath,
		"-filter_complex", "amix=inputs=2:duration=first:dropout_transition=0:normalize=0",
		"-c:a", "aac",
		outputPath)
}

// AddAudioTrack muxes an audio file onto a video's timeline. The video
// stream is copied untouched; the audio is fitted to the video's measured
// duration with the same arithmetic the reconciler uses: trimmed when
// longer, loop-concatenated (hard cut) then trimmed when shorter. This is
// how a video whose generated length drifted from the voiceover gets
// implicitly corrected; the video itself is never re-timed.
func (t *Toolchain) AddAudioTrack(ctx context.Context, videoPath, audioPath, outputPath string) error {
	videoDuration, err := t.Duration(ctx, videoPath)
	if err != nil {
		return err
	}
	audioDuration, err := t.Duration(ctx, audioPath)
	if err != nil {
		return err
	}

	loops := 0
	if audioDuration < videoDuration && !withinTolerance(audioDuration, videoDuration) {
		loops = repeatCount(audioDuration, videoDuration) - 1
	}

	return t.run(ctx,
		"-i", videoPath,
		"-stream_loop", fmt.Sprintf("%d", loops),
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-t", fmt.Sprintf("%.3f", videoDuration),
		outputPath)
}
