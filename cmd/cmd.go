// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, markdown, csv or json",
		Value:   value,
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write to a file instead of stdout",
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
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", Value: "config.toml"},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the Tekmetric proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the Tekmetric token-caching proxy",
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
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Token cache driver: memory or redis (overrides cache.driver)",
			},
		},
		Action: r.Serve,
	}
}

// panelCommand launches the advance appointment panel.
func panelCommand(r *Runner) *cli.Command {
	pageFlags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "url",
			Usage: "Tekmetric repair order page URL",
		},
		&cli.StringFlag{
			Name:  "ro",
			Usage: "Repair order ID; builds the page URL from tekmetric.base_url and shop",
		},
		&cli.StringFlag{
			Name:  "shop",
			Usage: "Shop ID used with --ro (defaults to tekmetric.shop_id)",
		},
	}

	return &cli.Command{
		Name:    "panel",
		Aliases: []string{"ui", "tui"},
		Usage:   "Schedule the next service visit for a repair order",
		Flags: append(pageFlags, &cli.StringFlag{
			Name:  "log-file",
			Usage: "Where panel logs are written while the screen is active",
			Value: "./tmp/tekx-panel.log",
		}),
		Action: r.Panel,
		Commands: []*cli.Command{
			{
				Name:   "preview",
				Usage:  "Print the recommended appointment and purpose of visit without booking",
				Flags:  pageFlags,
				Action: r.PanelPreview,
			},
			{
				Name:   "close",
				Usage:  "Discard the saved panel session",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PanelClose,
			},
		},
	}
}

// roCommand handles repair order lookups through the proxy.
func roCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ro",
		Aliases: []string{"repair-order"},
		Usage:   "Repair order operations",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Fetch a repair order with its customer, vehicle and jobs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag(), formatFlag("text"), outputFlag()},
				Action: r.ROGet,
			},
			{
				Name:  "open",
				Usage: "Open the repair order in Tekmetric",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "shop",
						Usage: "Shop ID (defaults to tekmetric.shop_id)",
					},
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the URL instead of opening a browser",
					},
				},
				Action: r.ROOpen,
			},
			{
				Name:      "export",
				Usage:     "Export several repair orders to a directory",
				ArgsUsage: "<id> [id...]",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("json"),
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (defaults to ro_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Repair order fetches per second",
						Value: 5,
					},
				},
				Action: r.ROExport,
			},
		},
	}
}

// appointmentsCommand handles appointment lookups and booking history.
func appointmentsCommand(r *Runner) *cli.Command {
	rangeFlags := func() []cli.Flag {
		return []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "shop",
				Usage: "Shop ID (defaults to tekmetric.shop_id)",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "First day, YYYY-MM-DD (defaults to today)",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Last day, YYYY-MM-DD (defaults to start plus --days)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Window length when --end is not given",
				Value: 5,
			},
		}
	}

	return &cli.Command{
		Name:    "appointments",
		Aliases: []string{"appt"},
		Usage:   "Appointment operations",
		Commands: []*cli.Command{
			{
				Name:   "counts",
				Usage:  "Booked appointments per day",
				Flags:  append(rangeFlags(), formatFlag("text")),
				Action: r.AppointmentCounts,
			},
			{
				Name:  "list",
				Usage: "List appointments in a date range",
				Flags: append(rangeFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				}),
				Action: r.AppointmentList,
			},
			{
				Name:  "history",
				Usage: "Appointments booked from the panel",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag("text"),
					outputFlag(),
					&cli.StringFlag{
						Name:  "ro",
						Usage: "Only bookings for this repair order",
					},
					&cli.StringFlag{
						Name:  "shop",
						Usage: "Only bookings for this shop",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of bookings to show",
						Value: 20,
					},
				},
				Action: r.AppointmentHistory,
			},
		},
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the tekx proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// authCommand handles Tekmetric credential checks
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Tekmetric authentication",
		Commands: []*cli.Command{
			{
				Name:   "token",
				Usage:  "Exchange client credentials for a fresh bearer token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthToken,
			},
			{
				Name:   "status",
				Usage:  "Check proxy health and whether it has credentials",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// cacheCommand inspects and clears the token cache and saved panel sessions
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached tokens and panel sessions",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the cached Tekmetric token and saved panel keys",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheShow,
			},
			{
				Name:  "clear",
				Usage: "Remove the cached Tekmetric token",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "panel",
						Usage: "Also discard saved panel sessions",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}
