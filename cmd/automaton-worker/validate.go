package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/automaton/pkg/config"
	"github.com/dukex/automaton/pkg/flow"
	"github.com/urfave/cli/v3"
)

var ErrInvalidAutomations = errors.New("invalid automations found")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate automation catalog files (YAML or JSON)",
		ArgsUsage: "<automations.yaml>...",
		Action: func(_ context.Context, command *cli.Command) error {
			files := command.Args().Slice()
			if len(files) == 0 {
				return errors.New("at least one automation file is required")
			}

			return validateFiles(os.Stdout, files)
		},
	}
}

func validateFiles(out io.Writer, files []string) error {
	valid := 0
	invalid := 0

	for _, path := range files {
		automations, err := config.LoadAutomations(path)
		if err != nil {
			_, _ = fmt.Fprintf(out, "%s: INVALID: %v\n", path, err)
			invalid++

			continue
		}

		for _, automation := range automations {
			err := flow.ValidateAutomation(automation)
			if err != nil {
				_, _ = fmt.Fprintf(out, "%s: %s: INVALID: %v\n", path, automation.ID, err)
				invalid++

				continue
			}

			_, _ = fmt.Fprintf(out, "%s: %s: VALID\n", path, automation.ID)
			valid++
		}
	}

	_, _ = fmt.Fprintf(out, "\nValidation Summary: %d valid, %d invalid\n", valid, invalid)

	if invalid > 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAutomations, invalid)
	}

	return nil
}
