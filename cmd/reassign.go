package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/engine"
)

var reassignReq engine.ReassignRequest
var reassignYes bool

var reassignCmd = &cobra.Command{
	Use:   "reassign",
	Short: "Manually reassign an account to a new owner",
	Long:  "Moves one account (and optionally its hierarchy) to a new owner. Moves that split a hierarchy or override a lock require --yes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		eng, _, err := buildEngine(ctx, s)
		if err != nil {
			return err
		}

		plan, err := eng.PlanReassignment(reassignReq)
		if err != nil {
			return err
		}

		if plan.RequiresConfirmation() {
			for _, w := range plan.Warnings() {
				fmt.Printf("warning: %s\n", w)
			}
			for _, id := range plan.SkippedLocked() {
				fmt.Printf("locked, staying behind: %s\n", id)
			}
			if !reassignYes {
				plan.Cancel()
				return fmt.Errorf("reassignment needs confirmation, re-run with --yes")
			}
			plan.Confirm()
		}

		overrodeLocks := plan.State() == engine.StateLockOverrideWarned

		result, err := plan.Apply()
		if err != nil {
			return err
		}

		if overrodeLocks {
			for _, a := range result.Affected {
				if a.ExcludeFromReassignment {
					fmt.Printf("note: %s stays locked to its current owner; the next pass will pin it back unless ownership syncs or it is unlocked\n", a.ID)
				}
			}
		}

		for _, a := range result.Affected {
			if err := s.UpdateAccount(ctx, *a); err != nil {
				return err
			}
		}
		if err := s.SaveAudit(ctx, result.Audit); err != nil {
			return err
		}
		zap.L().Info("reassign: applied",
			zap.String("account_id", reassignReq.AccountID),
			zap.String("new_owner_id", reassignReq.NewOwnerID),
			zap.Int("affected", len(result.Affected)),
		)

		for _, p := range result.Proposals {
			fmt.Printf("%s -> %s (%s)\n", p.AccountID, p.ProposedOwnerName, p.Confidence)
		}
		return nil
	},
}

func init() {
	reassignCmd.Flags().StringVar(&reassignReq.AccountID, "account", "", "account id to move")
	reassignCmd.Flags().StringVar(&reassignReq.NewOwnerID, "new-owner", "", "rep id to move the account to")
	reassignCmd.Flags().BoolVar(&reassignReq.IncludeChildren, "include-children", false, "cascade the move to child accounts")
	reassignCmd.Flags().BoolVar(&reassignReq.MoveOnlyThis, "move-only-this", false, "move only the named child, splitting its hierarchy")
	reassignCmd.Flags().BoolVar(&reassignReq.OverrideLocks, "override-locks", false, "move locked accounts too")
	reassignCmd.Flags().StringVar(&reassignReq.Rationale, "rationale", "", "reason recorded in the audit trail")
	reassignCmd.Flags().BoolVar(&reassignYes, "yes", false, "confirm warned moves without prompting")
	_ = reassignCmd.MarkFlagRequired("account")
	_ = reassignCmd.MarkFlagRequired("new-owner")
	rootCmd.AddCommand(reassignCmd)
}
