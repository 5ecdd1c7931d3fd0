// Package main runs the automaton worker: it consumes trigger events and
// resumes due enrollments on a fixed cadence.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "automaton-worker",
		EnableShellCompletion: true,
		Usage:                 "Enroll customers into automations and step them through their flows",
		Commands: []*cli.Command{
			NewRunCommand(),
			NewValidateCommand(),
			NewSeedCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
