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
	"math"
	"os"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// DurationTolerance is the band, in seconds, within which a clip is accepted
// as-is. Reconciliation aims for "close enough for a short", not
// sample-exact alignment.
const DurationTolerance = 1.0

// MaxFadeSeconds caps the tail fade applied after a trim or loop.
const MaxFadeSeconds = 3.0

// InvalidTargetError reports a reconciliation request with a non-positive
// target duration.
type InvalidTargetError struct {
	Target float64
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target duration: %.3f seconds", e.Target)
}

// Reconciler forces a generated clip onto a target timeline. Remote services
// produce approximate durations only, so every clip that must sit under the
// voiceover gets measured and, when off by more than the tolerance, trimmed
// or loop-extended to fit.
type Reconciler struct {
	tools *Toolchain
}

// NewReconciler wraps a toolchain.
func NewReconciler(tools *Toolchain) *Reconciler {
	return &Reconciler{tools: tools}
}

// withinTolerance reports whether current is close enough to target that no
// reconciliation is needed.
func withinTolerance(current, target float64) bool {
	return math.Abs(current-target) < DurationTolerance
}

// repeatCount returns how many copies of a clip of length current must be
// concatenated to cover target. floor(target/current)+1 always overshoots,
// so the concatenation can be trimmed down to the exact target.
func repeatCount(current, target float64) int {
	return int(math.Floor(target/current)) + 1
}

// fadeSeconds returns the tail fade window for a clip of the given target
// length: a tenth of the clip, capped at three seconds.
func fadeSeconds(target float64) float64 {
	return math.Min(MaxFadeSeconds, target*0.1)
}

// MatchDuration returns the asset adjusted to the target duration.
//
// Within the tolerance band the asset comes back untouched, with no fade;
// the fade is part of the trim/loop path only. A short clip is extended by
// concatenating floor(target/current)+1 copies (the loop point is a hard
// cut) and trimming the result to the target; a long clip is trimmed to the
// first target seconds. Either way a fade-out of min(3s, 10% of target) is
// applied at the tail, and the adjusted file replaces the original on disk.
func (r *Reconciler) MatchDuration(ctx context.Context, asset model.MediaAsset, target float64) (model.MediaAsset, error) {
	if target <= 0 {
		return asset, &InvalidTargetError{Target: target}
	}

	current, err := r.tools.Duration(ctx, asset.Path)
	if err != nil {
		return asset, err
	}

	if withinTolerance(current, target) {
		asset.DurationSeconds = current
		return asset, nil
	}

	loops := 0
	if current < target {
		loops = repeatCount(current, target) - 1
	}
	fade := fadeSeconds(target)

	tmp := tempSibling(asset.Path)
	err = r.tools.run(ctx,
		"-stream_loop", fmt.Sprintf("%d", loops),
		"-i", asset.Path,
		"-t", fmt.Sprintf("%.3f", target),
		"-af", fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", target-fade, fade),
		tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return asset, err
	}
	if err := os.Rename(tmp, asset.Path); err != nil {
		return asset, fmt.Errorf("failed to replace %s with reconciled clip: %w", asset.Path, err)
	}

	measured, err := r.tools.Duration(ctx, asset.Path)
	if err != nil {
		return asset, err
	}
	asset.DurationSeconds = measured
	return asset, nil
}

// AdjustVolume applies a pure gain shift in decibels, negative values
// attenuating. No normalization or limiting happens here; the typical use is
// pushing background music ~10 dB under a voiceover.
func (r *Reconciler) AdjustVolume(ctx context.Context, asset model.MediaAsset, deltaDB float64) (model.MediaAsset, error) {
	tmp := tempSibling(asset.Path)
	err := r.tools.run(ctx,
		"-i", asset.Path,
		"-af", fmt.Sprintf("volume=%.2fdB", deltaDB),
		tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return asset, err
	}
	if err := os.Rename(tmp, asset.Path); err != nil {
		return asset, fmt.Errorf("failed to replace %s with gain-adjusted clip: %w", asset.Path, err)
	}
	return asset, nil
}
