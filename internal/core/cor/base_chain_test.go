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

package cor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/zeebo/assert"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
)

// recordingCommand appends its name to a shared log on execution and pipes a
// derived value to the next command.
type recordingCommand struct {
	cor.BaseCommand
	log  *[]string
	fail bool
}

func newRecordingCommand(name string, log *[]string) *recordingCommand {
	return &recordingCommand{BaseCommand: *cor.NewBaseCommand(name), log: log}
}

func (c *recordingCommand) IsExecutable(ctx cor.Context) bool {
	return ctx.GetContext() != nil
}

func (c *recordingCommand) Execute(ctx cor.Context) {
	*c.log = append(*c.log, c.GetName())
	if c.fail {
		ctx.AddError(c.GetName(), fmt.Errorf("%s blew up", c.GetName()))
		return
	}
	in, _ := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+c.GetName()+";")
}

// gatedCommand refuses to run so the chain records a not-executable error.
type gatedCommand struct {
	cor.BaseCommand
}

func (c *gatedCommand) IsExecutable(cor.Context) bool { return false }

func (c *gatedCommand) Execute(cor.Context) {}

func newChainContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

func TestChainExecutesCommandsInOrderAndPipesOutput(t *testing.T) {
	var log []string
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(newRecordingCommand("first", &log))
	chain.AddCommand(newRecordingCommand("second", &log))
	chain.AddCommand(newRecordingCommand("third", &log))

	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "")
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.DeepEqual(t, []string{"first", "second", "third"}, log)
	// The chain moves each command's output to CtxIn, including the last.
	assert.Equal(t, "first;second;third;", ctx.Get(cor.CtxIn))
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestChainStopsAtFirstError(t *testing.T) {
	var log []string
	failing := newRecordingCommand("failing", &log)
	failing.fail = true

	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(newRecordingCommand("first", &log))
	chain.AddCommand(failing)
	chain.AddCommand(newRecordingCommand("never-runs", &log))

	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.DeepEqual(t, []string{"first", "failing"}, log)
	assert.Error(t, ctx.GetErrors()["failing"])
	assert.Nil(t, ctx.GetErrors()["never-runs"])
}

func TestChainContinuesPastErrorsWhenConfigured(t *testing.T) {
	var log []string
	failing := newRecordingCommand("failing", &log)
	failing.fail = true

	chain := cor.NewBaseChain("test-chain").ContinueOnFailure(true)
	chain.AddCommand(failing)
	chain.AddCommand(newRecordingCommand("still-runs", &log))

	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.DeepEqual(t, []string{"failing", "still-runs"}, log)
}

func TestChainRecordsNotExecutableCommands(t *testing.T) {
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(&gatedCommand{BaseCommand: *cor.NewBaseCommand("gated")})

	ctx := newChainContext()
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Error(t, ctx.GetErrors()["gated"])
}

func TestContextTracksErrorsAndData(t *testing.T) {
	ctx := cor.NewBaseContext()
	assert.False(t, ctx.HasErrors())

	ctx.Add("key", 42)
	assert.Equal(t, 42, ctx.Get("key"))
	ctx.Remove("key")
	assert.Nil(t, ctx.Get("key"))

	ctx.AddError("stage", fmt.Errorf("boom"))
	assert.True(t, ctx.HasErrors())

	// GetErrors hands back a copy; mutating it does not touch the context.
	errs := ctx.GetErrors()
	delete(errs, "stage")
	assert.True(t, ctx.HasErrors())
}
