package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goGuard/guard"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
)

var (
	errDenied         = errors.New("permission denied")
	errProfileFailure = errors.New("simulated profile failure")
)

// simSession is a scripted session: it holds a token unless anonymous, and
// yields the configured profile on fetch.
type simSession struct {
	token     string
	user      *session.User
	profile   *session.User
	fetchErr  error
	loggedOut bool
}

func (s *simSession) AccessToken() string { return s.token }
func (s *simSession) User() *session.User { return s.user }
func (s *simSession) CurrentRole() string {
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *simSession) FetchProfile(context.Context) (*session.User, error) {
	if s.token == "" {
		return nil, nil
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	s.user = s.profile
	return s.user, nil
}

func (s *simSession) Logout(context.Context) {
	s.token = ""
	s.user = nil
	s.loggedOut = true
}

type simulateOptions struct {
	role         string
	anonymous    bool
	stale        bool
	profileFails bool
	from         string
}

type simulateResult struct {
	Target    string `json:"target"`
	Route     string `json:"route,omitempty"`
	Outcome   string `json:"outcome"`
	Location  string `json:"location,omitempty"`
	Replace   bool   `json:"replace"`
	Reason    string `json:"reason"`
	LoggedOut bool   `json:"loggedOut"`
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	so := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <url>...",
		Short: "Replay navigation guard decisions",
		Long: `Run the navigation guard against one or more target URLs as a user with the
given role. Each target is evaluated in sequence against the same session, so a
forced logout carries over to later targets.

Examples:
  guardctl simulate /dashboard --role manager
  guardctl simulate /dashboard/admin/users --role manager --json
  guardctl simulate "/dashboard/profile?tab=2" --anonymous
  guardctl simulate / --role admin --stale --profile-fails`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}
			results := simulate(cmd.Context(), table, so, args)
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				line := fmt.Sprintf("%s -> %s", r.Target, r.Outcome)
				if r.Location != "" {
					line += " " + r.Location
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", line, r.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&so.role, "role", string(permission.RoleManager), "role of the simulated user")
	cmd.Flags().BoolVar(&so.anonymous, "anonymous", false, "simulate a visitor without a token")
	cmd.Flags().BoolVar(&so.stale, "stale", false, "hold a token but no loaded profile")
	cmd.Flags().BoolVar(&so.profileFails, "profile-fails", false, "make profile fetches fail")
	cmd.Flags().StringVar(&so.from, "from", "", "URL navigated from")
	return cmd
}

func simulate(ctx context.Context, table *permission.Table, so *simulateOptions, targets []string) []simulateResult {
	if ctx == nil {
		ctx = context.Background()
	}
	profile := &session.User{ID: "sim", Email: "sim@example.com", Role: so.role}
	sess := &simSession{token: "sim-token", user: profile, profile: profile}
	if so.stale || so.profileFails {
		sess.user = nil
	}
	if so.profileFails {
		sess.fetchErr = errProfileFailure
	}
	if so.anonymous {
		sess.token = ""
		sess.user = nil
	}

	routes := guard.DefaultRouteTable()
	g := guard.New(sess, permission.NewChecker(table, sess), guard.DefaultConfig())

	var from guard.Route
	if so.from != "" {
		from = routes.Resolve(so.from)
	}

	out := make([]simulateResult, 0, len(targets))
	for _, target := range targets {
		to := routes.Resolve(target)
		d := g.Check(ctx, to, from)
		r := simulateResult{
			Target:    target,
			Route:     to.Pattern,
			Outcome:   d.Outcome.String(),
			Replace:   d.Replace,
			Reason:    d.Reason,
			LoggedOut: sess.loggedOut,
		}
		if !d.Allowed() {
			r.Location = d.Location()
		}
		out = append(out, r)
		if d.Allowed() {
			from = to
		}
	}
	return out
}
