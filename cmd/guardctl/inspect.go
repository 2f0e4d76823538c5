package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/permission"
)

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes [role]",
		Short: "List allowed route patterns per role",
		Long: `List the allowed route patterns of one role, or of every role.

Examples:
  guardctl routes
  guardctl routes manager --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}

			out := map[permission.Role][]string{}
			for _, role := range rolesArg(args) {
				out[role] = permission.NewChecker(table, permission.StaticRole(role)).AllowedPaths()
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, role := range rolesArg(args) {
				fmt.Fprintf(w, "%s:\n", role)
				if len(out[role]) == 0 {
					fmt.Fprintln(w, "  (none)")
				}
				for _, p := range out[role] {
					marker := ""
					if permission.IsParameterized(p) {
						marker = " (parameterized)"
					}
					fmt.Fprintf(w, "  %s%s\n", p, marker)
				}
			}
			return nil
		},
	}
}

func newCanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "can <role> <feature> <action>",
		Short: "Check one feature permission",
		Long: `Report whether role holds action on feature. Exits non-zero when denied.

Example:
  guardctl can manager schedules canCreate`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}
			c := permission.NewChecker(table, permission.StaticRole(args[0]))
			granted := c.HasPermission(permission.Feature(args[1]), args[2])

			if opts.json {
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{
					"role": args[0], "feature": args[1], "action": args[2], "granted": granted,
				}); err != nil {
					return err
				}
			} else {
				verdict := "granted"
				if !granted {
					verdict = "denied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s.%s: %s\n", args[0], args[1], args[2], verdict)
			}
			if !granted {
				return errDenied
			}
			return nil
		},
	}
}

func newNavCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nav <role>",
		Short: "List the navigation items a role sees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}
			c := permission.NewChecker(table, permission.StaticRole(args[0]))

			keys := []permission.NavKey{
				permission.NavScheduleNew,
				permission.NavScheduleEdit,
				permission.NavScheduleCalendar,
				permission.NavScheduleStatus,
				permission.NavDiscord,
				permission.NavProfile,
				permission.NavUserManagement,
				permission.NavCheckinSchedules,
			}
			if cfg := c.CurrentRoleConfig(); cfg != nil {
				for k := range cfg.Navigation {
					if !containsKey(keys, k) {
						keys = append(keys, k)
					}
				}
			}

			shown := map[permission.NavKey]bool{}
			for _, k := range keys {
				shown[k] = c.ShouldShowNavItem(k)
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), shown)
			}

			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			for _, k := range keys {
				mark := "-"
				if shown[k] {
					mark = "+"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, k)
			}
			return nil
		},
	}
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Validate a permission table file",
		Long: `Parse and validate a permission table. Invalid patterns or role names fail
the command; roles missing from the table are reported as warnings since they
resolve to no access.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := permission.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, role := range table.MissingRoles() {
				fmt.Fprintf(w, "warning: role %s is not declared and resolves to no access\n", role)
			}

			routes := guard.DefaultRouteTable()
			for role, cfg := range table.Roles {
				for _, p := range cfg.Routes.AllowedPaths {
					if permission.IsParameterized(p) {
						continue
					}
					if r := routes.Resolve(p); r.Pattern == "" {
						fmt.Fprintf(w, "warning: %s allows %s which no dashboard route serves\n", role, p)
					}
				}
			}
			fmt.Fprintf(w, "ok: %d roles\n", len(table.Roles))
			return nil
		},
	}
}

func containsKey(keys []permission.NavKey, k permission.NavKey) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}
