package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/report"
	"github.com/sells-group/territory-cli/internal/store"
)

var reportPassID string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a stored assignment pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var pass *store.PassRecord
		if reportPassID != "" {
			pass, err = s.GetPass(ctx, reportPassID)
		} else {
			pass, err = s.LatestPass(ctx)
		}
		if err != nil {
			return err
		}
		if pass == nil {
			return fmt.Errorf("no pass found, run assign first")
		}

		eng, _, err := buildEngine(ctx, s)
		if err != nil {
			return err
		}

		result := &engine.PassResult{
			PassID:        pass.ID,
			Proposals:     pass.Proposals,
			Warnings:      pass.Warnings,
			UnassignedIDs: pass.UnassignedIDs,
		}
		summary := report.Summarize(result, eng.Roster(), repNamer(eng))
		fmt.Print(summary.Render())
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPassID, "pass", "", "pass id to summarize, latest when empty")
	rootCmd.AddCommand(reportCmd)
}
