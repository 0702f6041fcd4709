package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "remindx"
	app.Usage = "Operate the remindx identity and session backend"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"REMINDX_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "One of debug, info, warn, error, silence",
			EnvVars: []string{"REMINDX_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Usage:   "Overrides the database connection string",
			EnvVars: []string{"REMINDX_DATABASE_DSN"},
		},
		&cli.StringFlag{
			Name:    "access-secret",
			Usage:   "Overrides the access token signing secret",
			EnvVars: []string{"REMINDX_ACCESS_SECRET"},
		},
		&cli.StringFlag{
			Name:    "refresh-secret",
			Usage:   "Overrides the refresh token signing secret",
			EnvVars: []string{"REMINDX_REFRESH_SECRET"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Apply database migrations",
			Category:    "Database",
			Description: `Applies every migration which is not recorded yet and prints the latest version.`,
		},
		{
			Action:   s.startLogin,
			Name:     "login",
			Usage:    "Log in through an OAuth2 provider",
			Category: "Auth",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Value: "discord", Usage: "Name of the configured provider"},
				&cli.StringFlag{Name: "access-token", Usage: "Provider access token"},
				&cli.StringFlag{Name: "code", Usage: "Authorization code returned by the provider"},
				&cli.StringFlag{Name: "code-verifier", Usage: "PKCE verifier printed by the first step"},
				&cli.StringFlag{Name: "redirect-uri", Usage: "Redirect URI used in the first step"},
				&cli.StringFlag{Name: "id-token", Usage: "OpenID Connect ID token"},
			},
			Description: `Without credentials, prints the authorization URL with a fresh state and PKCE verifier.
With an access token, a code or an ID token, reconciles the user and prints a new token pair.`,
		},
		{
			Action:   s.startIssue,
			Name:     "issue",
			Usage:    "Reconcile a user and issue a token pair",
			Category: "Auth",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "discord-id", Required: true, Usage: "External Discord identifier"},
				&cli.StringFlag{Name: "name", Usage: "Display name"},
				&cli.StringFlag{Name: "email", Usage: "Email address"},
				&cli.StringFlag{Name: "avatar", Usage: "Avatar reference"},
			},
			Description: `Used by operators to sign a user in without a provider round trip.`,
		},
		{
			Action:   s.startVerify,
			Name:     "verify",
			Usage:    "Verify a token and print its payload",
			Category: "Auth",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "token", Required: true},
				&cli.StringFlag{Name: "kind", Value: "access", Usage: "access or refresh"},
			},
		},
		{
			Action:   s.startRotate,
			Name:     "rotate",
			Usage:    "Exchange a refresh token for a new token pair",
			Category: "Auth",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "token", Required: true},
			},
		},
		{
			Action:   s.startRevoke,
			Name:     "revoke",
			Usage:    "Revoke a refresh token",
			Category: "Auth",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "token", Required: true},
			},
		},
		{
			Action:   s.startMe,
			Name:     "me",
			Usage:    "Print the user who owns an access token",
			Category: "User",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "token", Required: true},
			},
		},
		{
			Action:   s.startDeleteUser,
			Name:     "delete-user",
			Usage:    "Delete a user and revoke all of its refresh tokens",
			Category: "User",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Required: true},
			},
		},
	}

	s.app = app
}
