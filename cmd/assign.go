package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/report"
	"github.com/sells-group/territory-cli/internal/store"
)

var assignJSON bool

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run an assignment pass over the stored snapshot",
	Long:  "Runs the full waterfall over every stored account, persists the pass and proposed owners, and prints a summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		eng, accounts, err := buildEngine(ctx, s)
		if err != nil {
			return err
		}

		result, err := eng.RunPass()
		if err != nil {
			return err
		}

		rec := store.PassRecord{
			ID:            result.PassID,
			CreatedAt:     time.Now().UTC(),
			Proposals:     result.Proposals,
			Warnings:      result.Warnings,
			UnassignedIDs: result.UnassignedIDs,
		}
		if err := s.SavePass(ctx, rec); err != nil {
			return err
		}
		for _, a := range accounts {
			if err := s.UpdateAccount(ctx, *a); err != nil {
				return err
			}
		}
		zap.L().Info("assign: pass persisted",
			zap.String("pass_id", result.PassID),
			zap.Int("accounts", len(accounts)),
		)

		if assignJSON {
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		summary := report.Summarize(result, eng.Roster(), repNamer(eng))
		fmt.Print(summary.Render())
		return nil
	},
}

func init() {
	assignCmd.Flags().BoolVar(&assignJSON, "json", false, "print the full pass record as JSON instead of a summary")
	rootCmd.AddCommand(assignCmd)
}
