package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/territory-cli/internal/model"
	sf "github.com/sells-group/territory-cli/pkg/salesforce"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange snapshots with Salesforce",
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull accounts and reps from Salesforce into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := initSalesforce()
		if err != nil {
			return err
		}

		var (
			accounts []model.Account
			reps     []model.SalesRep
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			accounts, err = sf.PullAccounts(gctx, client)
			return err
		})
		g.Go(func() error {
			var err error
			reps, err = sf.PullReps(gctx, client)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SaveAccounts(ctx, accounts); err != nil {
			return err
		}
		if err := s.SaveReps(ctx, reps); err != nil {
			return err
		}
		zap.L().Info("sync: pulled snapshot",
			zap.Int("accounts", len(accounts)),
			zap.Int("reps", len(reps)),
		)
		fmt.Printf("pulled %d accounts, %d reps\n", len(accounts), len(reps))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the latest pass's proposed owners back to Salesforce",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		pass, err := s.LatestPass(ctx)
		if err != nil {
			return err
		}
		if pass == nil {
			return fmt.Errorf("no pass to push, run assign first")
		}

		accounts, err := s.ListAccounts(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]*model.Account, len(accounts))
		for i := range accounts {
			byID[accounts[i].ID] = &accounts[i]
		}

		client, err := initSalesforce()
		if err != nil {
			return err
		}

		updates := sf.OwnerUpdatesFromProposals(pass.Proposals, byID)
		results, err := sf.PushOwnerUpdates(ctx, client, updates)
		if err != nil {
			return err
		}

		var failed int
		for _, r := range results {
			if !r.Success {
				failed++
				zap.L().Warn("sync: update rejected",
					zap.String("account_id", r.ID),
					zap.Strings("errors", r.Errors),
				)
			}
		}
		zap.L().Info("sync: pushed proposals",
			zap.String("pass_id", pass.ID),
			zap.Int("updates", len(updates)),
			zap.Int("failed", failed),
		)
		fmt.Printf("pushed %d updates, %d failed\n", len(updates), failed)
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncPullCmd, syncPushCmd)
	rootCmd.AddCommand(syncCmd)
}
