package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/territory-cli/internal/engine"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect assignment rules",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the rule and territory files",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := engine.LoadRuleSet(cfg.Rules.Path, cfg.Rules.TerritoryPath)
		if err != nil {
			return err
		}
		for _, r := range rs.Rules() {
			state := "disabled"
			if r.Enabled {
				state = "enabled"
			}
			fmt.Printf("%3d  %-14s  %-10s  %s\n", r.Priority, r.Type, r.Scope, state)
		}
		fmt.Printf("%d rules ok\n", len(rs.Rules()))
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
