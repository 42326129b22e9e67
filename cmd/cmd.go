// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/rango/internal/tasks"
	"github.com/urfave/cli/v3"
)

// serveCommand starts the web server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the rango web server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the site in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"o"},
						Usage:   "Where to write the file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// populateCommand loads seed categories and pages
func populateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "populate",
		Usage: "Load seed categories and pages into the database",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "YAML seed file (defaults to the built-in seed data)",
			},
		},
		Action: r.Populate,
	}
}

// categoriesCommand handles category listing
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Category operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories, most liked first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of categories to return (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CategoriesList,
			},
		},
	}
}

// pagesCommand handles page listing
func pagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pages",
		Usage: "Page operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List pages, most viewed first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only pages of the category with this slug",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of pages to return (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PagesList,
			},
			{
				Name:  "check",
				Usage: "Request every page URL and report broken links",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only check pages of the category with this slug",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10)",
						Value: tasks.DefaultWorkers,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second across all workers",
						Value: tasks.DefaultRateLimit,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Per-request timeout",
						Value: tasks.DefaultTimeout,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PagesCheck,
			},
		},
	}
}

// usersCommand handles account administration
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new account",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Optional email address",
					},
					&cli.StringFlag{
						Name:  "website",
						Usage: "Optional profile website",
					},
				},
				Action: r.UsersCreate,
			},
			{
				Name:      "activate",
				Usage:     "Allow an account to log in again",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.UsersActivate,
			},
			{
				Name:      "deactivate",
				Usage:     "Stop an account from logging in",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.UsersDeactivate,
			},
		},
	}
}

// exportCommand writes every category and page to a file
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the directory as CSV, Markdown, text or JSON",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, markdown, text or json",
				Value:   "markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (- for stdout; defaults to rango_directory.<ext>)",
			},
		},
		Action: r.Export,
	}
}

// tuiCommand returns the top-level TUI command for browsing the directory.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"browse", "ui"},
		Usage:   "Browse categories and pages in the terminal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "user",
				Usage: "Act as this account so categories can be liked",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the browser is running",
				Value: "./tmp/rango-tui.log",
			},
		},
		Action: r.TUI,
	}
}
