package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/store"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print bot statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "rentline.yaml", "path to config file")
	return cmd
}

func runStats(cmd *cobra.Command, configPath string) error {
	gormDB, _, err := openDB(configPath)
	if err != nil {
		return err
	}
	st, err := store.New(gormDB)
	if err != nil {
		return err
	}
	stats, err := st.CollectStats()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), chat.FormatStats(stats))
	return nil
}
