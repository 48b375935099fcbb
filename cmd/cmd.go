// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// listCommand handles read-only list fetching and export
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Fetch a user's list and print or export it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "AniList username",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "status",
				Usage: "Only fetch entries with these statuses (default: all)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv, markdown, text, or json",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write to the default file for the chosen format",
			},
		},
		Action: r.List,
	}
}

// authCommand handles OAuth token management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage AniList OAuth tokens",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize an account and store its token",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "username",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "manual",
						Usage: "Authorize by pasting the redirect URL instead of a localhost callback",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "List stored accounts and verify their tokens",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Remove a stored token",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "username",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}
