package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockReason string

var lockCmd = &cobra.Command{
	Use:   "lock <account-id>",
	Short: "Exclude an account from reassignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(cmd, args[0], true, lockReason)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <account-id>",
	Short: "Make a locked account assignable again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(cmd, args[0], false, "")
	},
}

func setLock(cmd *cobra.Command, accountID string, locked bool, reason string) error {
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

	account, audit, err := eng.SetLock(accountID, locked, reason)
	if err != nil {
		return err
	}
	if err := s.UpdateAccount(ctx, *account); err != nil {
		return err
	}
	if err := s.SaveAudit(ctx, *audit); err != nil {
		return err
	}

	if locked {
		fmt.Printf("locked %s to %s\n", account.ID, account.CurrentOwnerName)
	} else {
		fmt.Printf("unlocked %s\n", account.ID)
	}
	return nil
}

// auditCmd lists the audit trail for one account.
var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit <account-id>",
	Short: "Show the reassignment and lock history for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.ListAudit(ctx, args[0], auditLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-8s  %s -> %s  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Operation, e.PreviousOwnerID, e.NewOwnerID, e.Rationale)
		}
		if len(entries) == 0 {
			fmt.Println("no audit entries")
		}
		return nil
	},
}

func init() {
	lockCmd.Flags().StringVar(&lockReason, "reason", "", "why the account is locked")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "max entries to show")
	rootCmd.AddCommand(lockCmd, unlockCmd, auditCmd)
}
