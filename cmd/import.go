package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/importer"
	"github.com/sells-group/territory-cli/internal/model"
)

var importSheet string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a snapshot from spreadsheet exports",
}

var importAccountsCmd = &cobra.Command{
	Use:   "accounts <file>",
	Short: "Import accounts from a CSV or XLSX export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		accounts, err := readAccountsFile(args[0])
		if err != nil {
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
		zap.L().Info("import: accounts saved",
			zap.String("file", args[0]),
			zap.Int("count", len(accounts)),
		)
		fmt.Printf("imported %d accounts\n", len(accounts))
		return nil
	},
}

var importRepsCmd = &cobra.Command{
	Use:   "reps <file>",
	Short: "Import sales reps from a CSV or XLSX export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reps, err := readRepsFile(args[0])
		if err != nil {
			return err
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SaveReps(ctx, reps); err != nil {
			return err
		}
		zap.L().Info("import: reps saved",
			zap.String("file", args[0]),
			zap.Int("count", len(reps)),
		)
		fmt.Printf("imported %d reps\n", len(reps))
		return nil
	},
}

func readAccountsFile(path string) ([]model.Account, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.AccountsFromCSV(path)
	case ".xlsx":
		return importer.AccountsFromXLSX(path, importSheet)
	default:
		return nil, eris.Errorf("cmd: unsupported file type %s", filepath.Ext(path))
	}
}

func readRepsFile(path string) ([]model.SalesRep, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.RepsFromCSV(path)
	case ".xlsx":
		return importer.RepsFromXLSX(path, importSheet)
	default:
		return nil, eris.Errorf("cmd: unsupported file type %s", filepath.Ext(path))
	}
}

func init() {
	importCmd.PersistentFlags().StringVar(&importSheet, "sheet", "", "worksheet name for XLSX files, first sheet when empty")
	importCmd.AddCommand(importAccountsCmd, importRepsCmd)
	rootCmd.AddCommand(importCmd)
}
