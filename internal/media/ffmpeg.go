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

// Package media wraps the local ffmpeg/ffprobe toolchain. All duration
// measurement, trimming, looping, fading, gain adjustment, muxing, and
// caption burn-in happens here by shelling out to ffmpeg, the same way the
// transcode step of our earlier media workflows did. Durations are always
// measured from the decoded artifact; upstream duration hints are never
// trusted.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/h2non/filetype"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/config"
)

const (
	DefaultFFmpegCommand  = "ffmpeg"
	DefaultFFprobeCommand = "ffprobe"
	TempFilePrefix        = "ffmpeg-output-"
)

// UnsupportedFormatError reports an artifact that could not be decoded.
type UnsupportedFormatError struct {
	Path string
	Err  error
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported media format: %s: %v", e.Path, e.Err)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// Toolchain is a thin handle on the ffmpeg and ffprobe executables.
type Toolchain struct {
	ffmpegPath  string
	ffprobePath string
	fontFile    string
}

// NewToolchain builds a toolchain from configuration, falling back to the
// executables on PATH when no explicit paths are configured.
func NewToolchain(cfg config.Media) *Toolchain {
	ffmpeg := cfg.FFmpegPath
	if len(strings.TrimSpace(ffmpeg)) == 0 {
		ffmpeg = DefaultFFmpegCommand
	}
	ffprobe := cfg.FFprobePath
	if len(strings.TrimSpace(ffprobe)) == 0 {
		ffprobe = DefaultFFprobeCommand
	}
	return &Toolchain{ffmpegPath: ffmpeg, ffprobePath: ffprobe, fontFile: cfg.FontFile}
}

// run executes ffmpeg with the given arguments, capturing stderr so failures
// carry the tool's own diagnostics.
func (t *Toolchain) run(ctx context.Context, args ...string) error {
	full := append([]string{"-y", "-hide_banner"}, args...)
	cmd := exec.CommandContext(ctx, t.ffmpegPath, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg %v: %w: %s", args, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Duration measures an artifact's length in seconds by decoding it with
// ffprobe. A file that ffprobe cannot parse, or whose container ffprobe does
// not recognize, yields an UnsupportedFormatError.
func (t *Toolchain) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &UnsupportedFormatError{Path: path, Err: err}
	}
	// Cheap sniff before spawning a process: a file whose magic bytes match
	// no known media container will not decode.
	if kind, err := filetype.MatchFile(path); err == nil && kind == filetype.Unknown {
		return 0, &UnsupportedFormatError{Path: path, Err: fmt.Errorf("unrecognized file type")}
	}

	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, &UnsupportedFormatError{Path: path, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}
	raw := strings.TrimSpace(stdout.String())
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &UnsupportedFormatError{Path: path, Err: fmt.Errorf("unparseable duration %q", raw)}
	}
	return seconds, nil
}

// tempSibling creates a scratch output path next to the target so the final
// rename stays on one filesystem. The caller owns removal on failure.
func tempSibling(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	return filepath.Join(dir, TempFilePrefix+filepath.Base(path)+ext)
}

// CopyFile duplicates src at dst. Used when the caption overlay is disabled
// and the muxed video is promoted verbatim to the final path.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not open dest file: %w", err)
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("could not copy to dest from source: %w", err)
	}
	return out.Sync()
}
