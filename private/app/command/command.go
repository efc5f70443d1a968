// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package command contains shared helpers for building cobra commands.
package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Arjun4522/RPKI-viz/private/config"
	"github.com/Arjun4522/RPKI-viz/private/env"
)

// Pather returns the path to a command.
type Pather interface {
	CommandPath() string
}

// StringPather implements Pather on a plain string.
type StringPather string

func (s StringPather) CommandPath() string {
	return string(s)
}

// NewSample creates the sample command that groups all sample file
// generators.
func NewSample(pather Pather, factories ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
	}
	joined := StringPather(fmt.Sprintf("%s sample", pather.CommandPath()))
	for _, factory := range factories {
		cmd.AddCommand(factory(joined))
	}
	return cmd
}

// NewSampleConfig creates a sample file generator for the given
// configuration.
func NewSampleConfig(cfg config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:   "config",
			Short: "Display sample configuration file",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cfg.Sample(cmd.OutOrStdout(), nil, nil)
			},
		}
	}
}

// NewVersion creates the version information command.
func NewVersion(pather Pather) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), env.VersionInfo())
		},
	}
}
