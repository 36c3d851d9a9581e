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

package generation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/generation"
)

func TestEstimateSpokenSeconds(t *testing.T) {
	// 150 words per minute: 300 words take two minutes.
	assert.InDelta(t, 120.0, generation.EstimateSpokenSeconds(300), 0.001)
	assert.InDelta(t, 30.0, generation.EstimateSpokenSeconds(75), 0.001)
	assert.InDelta(t, 0.0, generation.EstimateSpokenSeconds(0), 0.001)
}
