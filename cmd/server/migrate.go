package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/health-keeper/internal/config"
	"github.com/and161185/health-keeper/internal/migrate"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	v := config.New()
	dsn := func(c *cobra.Command) (string, error) {
		configFile, _ := c.Flags().GetString("config")
		if err := config.ReadFile(v, configFile); err != nil {
			return "", err
		}
		d := v.GetString("database_dsn")
		if d == "" {
			return "", errors.New("database_dsn is required (flag --database-dsn or HK_DATABASE_DSN)")
		}
		return d, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(c *cobra.Command, _ []string) error {
			d, err := dsn(c)
			if err != nil {
				return err
			}
			if err := migrate.Up(c.Context(), d); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			ver, err := migrate.Version(c.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "schema at version %d\n", ver)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		RunE: func(c *cobra.Command, _ []string) error {
			d, err := dsn(c)
			if err != nil {
				return err
			}
			ver, err := migrate.Version(c.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "schema at version %d\n", ver)
			return nil
		},
	}

	cmd.PersistentFlags().String("database-dsn", "", "PostgreSQL DSN")
	_ = v.BindPFlag("database_dsn", cmd.PersistentFlags().Lookup("database-dsn"))
	cmd.AddCommand(up, status)
	return cmd
}
