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

// Package cor (Chain of Responsibility) provides the building blocks for the
// pipeline: a Context that carries shared state through a run, a Command that
// performs one atomic unit of work, and a Chain that executes commands in
// order. The shorts pipeline is a single chain whose commands are the stages
// (script, voiceover, music, video, mux, overlay, manifest); each command
// reads its input from the context and writes its output back for the next.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/model"
)

// CtxIn and CtxOut are the keys the chain uses to pipe the primary output of
// one command into the primary input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution. It carries the
// pipeline run being built, arbitrary keyed data, the errors commands have
// recorded, and any temporary files that need cleanup when the run ends.
type Context interface {
	SetContext(ctx context.Context)
	GetContext() context.Context

	// Run returns the pipeline run this execution is building. Stage
	// commands append their assets and metadata to it.
	Run() *model.PipelineRun
	SetRun(run *model.PipelineRun)

	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a failure under the name of the command that
	// produced it. A chain with default settings stops at the first error.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	AddTempFile(file string)
	GetTempFiles() []string

	// Close removes tracked temporary files. Stage artifacts are never
	// registered as temp files: a failed run deliberately leaves them on
	// disk for inspection and manual resumption.
	Close()
}

// Command is an atomic, testable unit of work.
type Command interface {
	// Execute performs the work, reading inputs from and writing outputs
	// to the shared context. Failures are recorded with Context.AddError,
	// never panicked.
	Execute(context Context)

	// GetName identifies the command in logs, traces, and error records.
	GetName() string

	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is the precondition check the chain runs before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command so chains can
// nest.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The pipeline uses the default (false):
	// the first failed stage aborts the run.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
}
