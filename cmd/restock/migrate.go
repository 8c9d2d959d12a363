package main

import (
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Apply database migrations (up, down, status, version, redo)",
		ArgsUsage: "[command]",
		Flags: []cli.Flag{
			newDBURLFlag(true),
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			command := c.Args().First()
			if command == "" {
				command = "up"
			}
			return postgres.Migrate(c.Context, dbFrom(c), command, c.Args().Tail()...)
		},
	}
}
