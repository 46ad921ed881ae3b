// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atmyapp/ama/internal/config"
)

// useParams bundles the dependencies and flags for the use command.
type useParams struct {
	stdout io.Writer
	stderr io.Writer

	target string
	url    string
	token  string
}

// newUseCommand creates the `ama use` command, which stores the project
// credentials every platform command reads.
func newUseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <project-url|token>",
		Short: "Store platform credentials for this machine",
		Long: `Store platform credentials for this machine.

The session file holds the project API URL and access token. It is written
with owner-only permissions and read by migrate, upload and snapshot.`,
		Example: `  # Dashboard URL with an embedded token
  ama use "https://api.atmyapp.com/p/demo?token=ama_xxxxx"

  # Project URL and token separately
  ama use https://api.atmyapp.com/p/demo --token ama_xxxxx

  # Raw token with an explicit API URL
  ama use ama_xxxxx --url https://api.atmyapp.com/p/demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			urlFlag, _ := cmd.Flags().GetString("url")
			tokenFlag, _ := cmd.Flags().GetString("token")

			p := useParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				target: args[0],
				url:    urlFlag,
				token:  tokenFlag,
			}

			return runUse(p)
		},
	}

	cmd.Flags().String("token", "", "project access token")
	cmd.Flags().String("url", "", "project API URL, when the argument is a raw token")

	return cmd
}

// runUse is the core session logic, separated from Cobra for testability.
func runUse(p useParams) error {
	session, err := parseUseTarget(p.target, p.url, p.token)
	if err != nil {
		fmt.Fprintf(p.stderr, "%s %v\n", ErrorStyle.Render("✗"), err)
		return &ExitError{Code: 1, Err: err}
	}

	if err := config.SaveSession(session); err != nil {
		fmt.Fprintf(p.stderr, "%s %v\n", ErrorStyle.Render("✗"), err)
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(p.stdout, "%s session stored for %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(session.ProjectURL))
	fmt.Fprintf(p.stdout, "  token %s\n", SubtitleStyle.Render(maskToken(session.Token)))
	if path, pathErr := config.SessionPath(); pathErr == nil {
		fmt.Fprintf(p.stdout, "  saved to %s\n", SubtitleStyle.Render(path))
	}

	return nil
}

// parseUseTarget resolves the three accepted credential forms into a
// session: a dashboard URL with an embedded token query parameter, a
// project URL plus --token, or a raw token plus --url. The embedded token
// parameter is stripped from the stored URL so it never lands in the
// session file twice.
func parseUseTarget(arg, urlFlag, tokenFlag string) (*config.Session, error) {
	u, err := url.Parse(arg)
	isURL := err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""

	if !isURL {
		// The argument is a raw token.
		if tokenFlag != "" {
			return nil, fmt.Errorf("pass the token either as the argument or via --token, not both")
		}
		if urlFlag == "" {
			return nil, fmt.Errorf("a raw token needs --url to know which project it belongs to")
		}
		base, baseErr := url.Parse(urlFlag)
		if baseErr != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
			return nil, fmt.Errorf("--url %q is not a valid http(s) URL", urlFlag)
		}
		return &config.Session{
			ProjectURL: strings.TrimRight(urlFlag, "/"),
			Token:      arg,
			CreatedAt:  time.Now(),
		}, nil
	}

	if urlFlag != "" {
		return nil, fmt.Errorf("pass the project URL either as the argument or via --url, not both")
	}

	token := tokenFlag
	q := u.Query()
	if embedded := q.Get("token"); embedded != "" {
		if token == "" {
			token = embedded
		}
		q.Del("token")
		u.RawQuery = q.Encode()
	}
	if token == "" {
		return nil, fmt.Errorf("no token given: pass --token or use a dashboard URL with an embedded token")
	}

	return &config.Session{
		ProjectURL: strings.TrimRight(u.String(), "/"),
		Token:      token,
		CreatedAt:  time.Now(),
	}, nil
}

// maskToken hides the middle of a token, keeping just enough of both ends
// to recognize which token is stored.
func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
