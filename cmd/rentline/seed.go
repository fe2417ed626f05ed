package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhuravin/rentline/internal/db"
)

func newSeedCmd() *cobra.Command {
	var (
		configPath string
		regular    int
		promos     int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample listings",
		Long:  "Writes generated listings with photos for development and demos. Safe to run repeatedly; each run adds more rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath, regular, promos, seed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "rentline.yaml", "path to config file")
	cmd.Flags().IntVar(&regular, "listings", 20, "number of regular listings")
	cmd.Flags().IntVar(&promos, "promos", 5, "number of promotional listings")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	return cmd
}

func runSeed(cmd *cobra.Command, configPath string, regular, promos int, seed int64) error {
	gormDB, _, err := openDB(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if err := db.Seed(gormDB, db.SeedOpts{Regular: regular, Promos: promos, Seed: seed}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d listings and %d promos\n", regular, promos)
	return nil
}
