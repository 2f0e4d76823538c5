package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/permission"
)

type rootOptions struct {
	tablePath string
	json      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "guardctl",
		Short: "Inspect permission tables and simulate navigation decisions",
		Long: `guardctl loads a goGuard permission table (the built-in dashboard table
unless --table is given) and answers questions about it: which routes a role
may enter, which features and navigation items it sees, and what the
navigation guard would decide for a given target.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.tablePath, "table", "", "permission table file (YAML or JSON)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of text")

	cmd.AddCommand(
		newRoutesCmd(opts),
		newCanCmd(opts),
		newNavCmd(opts),
		newSimulateCmd(opts),
		newLintCmd(),
	)
	return cmd
}

func (o *rootOptions) table() (*permission.Table, error) {
	if o.tablePath == "" {
		return permission.Default(), nil
	}
	return permission.Load(o.tablePath)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rolesArg returns the single requested role, or every role in the table.
func rolesArg(args []string) []permission.Role {
	if len(args) > 0 {
		return []permission.Role{permission.Role(args[0])}
	}
	return permission.Roles
}
