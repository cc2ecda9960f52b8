package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Validate and print the effective conversation script",
	RunE:  printScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func printScript(cmd *cobra.Command, _ []string) error {
	script, err := loadScript(cmd.Context())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
