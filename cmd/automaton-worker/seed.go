package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/automaton/pkg/cmd"
	"github.com/dukex/automaton/pkg/config"
	"github.com/dukex/automaton/pkg/log"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/urfave/cli/v3"
)

func NewSeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Load automation catalog files into the database",
		ArgsUsage: "<automations.yaml>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("automaton-worker").With("action", "seed")

			files := command.Args().Slice()
			if len(files) == 0 {
				return errors.New("at least one automation file is required")
			}

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			saved, err := seedFiles(ctx, store.AutomationRepository(), files)

			logger.InfoContext(ctx, "Seed finished", "saved", saved)

			return err
		},
	}
}

// seedFiles saves every automation of files, stopping at the first failure.
func seedFiles(ctx context.Context, repository persistence.AutomationRepository, files []string) (int, error) {
	saved := 0

	for _, path := range files {
		automations, err := config.LoadAutomations(path)
		if err != nil {
			return saved, err
		}

		for _, automation := range automations {
			err := repository.Save(ctx, automation)
			if err != nil {
				return saved, fmt.Errorf("%s: %w", path, err)
			}

			saved++
		}
	}

	return saved, nil
}
