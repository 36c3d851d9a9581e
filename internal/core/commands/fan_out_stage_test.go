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

package commands_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/commands"
	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
)

// parallelCommand simulates a long-running stage: it blocks until its work
// duration elapses or the Go context is canceled, and optionally fails.
type parallelCommand struct {
	cor.BaseCommand
	work     time.Duration
	fail     bool
	ran      chan struct{}
	canceled bool
}

func newParallelCommand(name string, work time.Duration) *parallelCommand {
	return &parallelCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		work:        work,
		ran:         make(chan struct{}),
	}
}

func (c *parallelCommand) IsExecutable(ctx cor.Context) bool {
	return ctx.GetContext() != nil
}

func (c *parallelCommand) Execute(ctx cor.Context) {
	defer close(c.ran)
	if c.fail {
		ctx.AddError(c.GetName(), fmt.Errorf("%s failed", c.GetName()))
		return
	}
	select {
	case <-ctx.GetContext().Done():
		c.canceled = true
		ctx.AddError(c.GetName(), ctx.GetContext().Err())
	case <-time.After(c.work):
	}
}

func newFanOutContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

func TestFanOutRunsAllChildren(t *testing.T) {
	a := newParallelCommand("child-a", time.Millisecond)
	b := newParallelCommand("child-b", time.Millisecond)
	stage := commands.NewFanOutStage("fan-out", a, b)

	ctx := newFanOutContext()
	stage.Execute(ctx)

	<-a.ran
	<-b.ran
	assert.False(t, ctx.HasErrors())
}

func TestFanOutRestoresParentContext(t *testing.T) {
	stage := commands.NewFanOutStage("fan-out", newParallelCommand("child", time.Millisecond))

	ctx := newFanOutContext()
	parent := ctx.GetContext()
	stage.Execute(ctx)

	assert.Equal(t, parent, ctx.GetContext())
	assert.NoError(t, ctx.GetContext().Err())
}

func TestFanOutFailureCancelsSiblings(t *testing.T) {
	failing := newParallelCommand("failing", 0)
	failing.fail = true
	slow := newParallelCommand("slow", 30*time.Second)

	stage := commands.NewFanOutStage("fan-out", failing, slow)

	ctx := newFanOutContext()
	done := make(chan struct{})
	go func() {
		stage.Execute(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fan-out did not return after a child failed")
	}

	assert.True(t, slow.canceled)
	assert.True(t, ctx.HasErrors())
	assert.Error(t, ctx.GetErrors()["failing"])
}

func TestFanOutChildrenPublishDistinctOutputs(t *testing.T) {
	music := commands.NewMusicStage("generate-music", nil, nil, -10, t.TempDir())
	video := commands.NewVideoStage("generate-video", nil, nil, t.TempDir())

	// The siblings run concurrently on one shared context, so neither may
	// write the chain's shared pipe key.
	assert.Equal(t, "generate-music", music.GetOutputParam())
	assert.Equal(t, "generate-video", video.GetOutputParam())
	assert.NotEqual(t, cor.CtxOut, music.GetOutputParam())
	assert.NotEqual(t, cor.CtxOut, video.GetOutputParam())
}

func TestFanOutRecordsNotExecutableChildren(t *testing.T) {
	gated := newParallelCommand("gated", time.Millisecond)
	stage := commands.NewFanOutStage("fan-out", &gatedChild{parallelCommand: gated})

	ctx := newFanOutContext()
	stage.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Error(t, ctx.GetErrors()["gated"])
}

type gatedChild struct {
	*parallelCommand
}

func (c *gatedChild) IsExecutable(cor.Context) bool { return false }
