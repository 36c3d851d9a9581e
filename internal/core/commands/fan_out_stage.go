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

package commands

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/vbianchi/Youtube-Shorts-AI/internal/core/cor"
)

// FanOutStage runs a set of commands concurrently and waits for all of them.
// The pipeline uses it to overlap the music and video generations, the two
// long remote polls that dominate a run's wall clock and do not depend on
// each other. Children must take their inputs from the run rather than the
// chain's piped value, and the first child to record an error cancels the
// Go context the others are polling on.
type FanOutStage struct {
	cor.BaseCommand
	commands []cor.Command
}

// NewFanOutStage builds the stage around its child commands.
func NewFanOutStage(name string, commands ...cor.Command) *FanOutStage {
	return &FanOutStage{
		BaseCommand: *cor.NewBaseCommand(name),
		commands:    commands,
	}
}

// IsExecutable only requires a live Go context; children carry their own
// preconditions and are checked inside their goroutines.
func (s *FanOutStage) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (s *FanOutStage) Execute(context cor.Context) {
	parent := context.GetContext()
	spanCtx, span := s.Tracer.Start(parent, fmt.Sprintf("%s_execute", s.GetName()))
	defer span.End()

	g, gctx := errgroup.WithContext(spanCtx)
	context.SetContext(gctx)

	for _, command := range s.commands {
		command := command
		g.Go(func() error {
			if !command.IsExecutable(context) {
				err := fmt.Errorf("command not executable: %s", command.GetName())
				context.AddError(command.GetName(), err)
				return err
			}
			command.Execute(context)
			if err, ok := context.GetErrors()[command.GetName()]; ok {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	context.SetContext(parent)

	if err != nil {
		s.GetErrorCounter().Add(parent, 1)
		span.SetStatus(codes.Error, "one or more parallel commands failed")
		return
	}
	s.GetSuccessCounter().Add(parent, 1)
	span.SetStatus(codes.Ok, "all parallel commands completed")
}
