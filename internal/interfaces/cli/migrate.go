package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/postgres"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

// migrator is the part of postgres.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Rollback(steps int) error
	Status() (uint, bool, error)
	Force(version int) error
	Close() error
}

// openMigrator is replaced in tests.
var openMigrator = func(dsn string) (migrator, error) {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate command group for the network store schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Rollback(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					PrintSuccess(cmd, "migrations applied")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m migrator) error {
					version, dirty, err := m.Status()
					if err != nil {
						return err
					}
					return PrintResult(cmd, migrationStatus{Version: version, Dirty: dirty})
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Record VERSION as applied without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil || version < -1 {
					return errors.InvalidParam(fmt.Sprintf("invalid version %q", args[0]))
				}
				return withMigrator(cmd, func(m migrator) error {
					if err := m.Force(version); err != nil {
						return err
					}
					PrintSuccess(cmd, fmt.Sprintf("forced version %d", version))
					return nil
				})
			},
		},
	)
	return cmd
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)\n", s.Version)
	}
	return fmt.Sprintf("version %d\n", s.Version)
}

func withMigrator(cmd *cobra.Command, fn func(migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	pg := cliCtx.Config.Database.Postgres
	if pg.Host == "" || pg.DBName == "" {
		return errors.New(errors.ErrCodeConfiguration, "database.postgres is not configured")
	}
	m, err := openMigrator(pg.DSN())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open migrator")
	}
	defer m.Close()
	return fn(m)
}

//Personal.AI order the ending
