package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zhuravin/rentline/internal/config"
	"github.com/zhuravin/rentline/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Rentline database",
		Long:  "Opens the configured database and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "rentline.yaml", "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	gormDB, cfg, err := openDB(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to drop all data without --force")
			}
			return runDBReset(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "rentline.yaml", "path to config file")
	cmd.Flags().BoolVar(&force, "force", false, "confirm destructive reset")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string) error {
	gormDB, _, err := openDB(configPath)
	if err != nil {
		return err
	}
	if err := db.Reset(gormDB); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database reset")
	return nil
}

// openDB loads the config and opens the configured database connection.
func openDB(configPath string) (*gorm.DB, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	secrets := config.LoadSecrets()
	gormDB, err := db.Connect(cfg.Database, secrets.MySQLPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return gormDB, cfg, nil
}
