package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/itinero-app/itinero/internal/itinerary"
	"github.com/itinero-app/itinero/internal/localstore"
	"github.com/itinero-app/itinero/internal/model"
	"github.com/itinero-app/itinero/internal/routing"
	"github.com/itinero-app/itinero/internal/storage"
	"github.com/itinero-app/itinero/migrations"
)

// requestTimeout bounds a single build.
const requestTimeout = 30 * time.Second

// newCLIApp creates the CLI application with all commands.
func newCLIApp(stdin io.Reader, stdout io.Writer) *cli.App {
	app := &cli.App{
		Name:    "itinctl",
		Usage:   "Seed a local catalog and build itineraries offline",
		Version: Version,
		Reader:  stdin,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log engine diagnostics to stderr"},
		},
		Commands: []*cli.Command{
			seedCmd(),
			buildCmd(),
			checkCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func loggerFor(c *cli.Context) *slog.Logger {
	level := slog.LevelError
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// seedCmd creates the seed command.
func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load a YAML catalog fixture into a SQLite catalog (and optionally Postgres)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "SQLite catalog file", Required: true},
			&cli.StringFlag{Name: "fixture", Aliases: []string{"f"}, Usage: "Catalog fixture YAML", Required: true},
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Usage: "Also seed this Postgres catalog"},
		},
		Action: func(c *cli.Context) error {
			cat, err := localstore.LoadFixture(c.String("fixture"))
			if err != nil {
				return outputError(err)
			}

			store, err := localstore.Open(c.String("db"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Seed(c.Context, cat); err != nil {
				return outputError(err)
			}

			out := seedOutput{
				DB:     c.String("db"),
				Places: len(cat.Places),
				Rates:  len(cat.Rates),
				Speeds: len(cat.Speeds),
			}

			if dsn := c.String("database-url"); dsn != "" {
				if err := seedPostgres(c.Context, dsn, cat, loggerFor(c)); err != nil {
					return outputError(err)
				}
				out.Postgres = true
			}

			return outputJSON(c.App.Writer, out, true)
		},
	}
}

type seedOutput struct {
	DB       string `json:"db"`
	Places   int    `json:"places"`
	Rates    int    `json:"rates"`
	Speeds   int    `json:"speeds"`
	Postgres bool   `json:"postgres"`
}

func seedPostgres(ctx context.Context, dsn string, cat model.Catalog, logger *slog.Logger) error {
	db, err := storage.New(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return err
	}
	return db.Seed(ctx, cat)
}

// buildCmd creates the build command.
func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build an itinerary from a trip request (reads stdin by default)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "SQLite catalog file", Required: true},
			&cli.StringFlag{Name: "request", Aliases: []string{"r"}, Value: "-", Usage: "Trip request JSON file, or - for stdin"},
			&cli.BoolFlag{Name: "pretty", Usage: "Indent the output"},
			&cli.StringFlag{Name: "legs-url", EnvVars: []string{"ITINERO_LEGS_URL"}, Usage: "Routing service URL; local estimates are used when empty"},
			&cli.StringFlag{Name: "legs-api-key", EnvVars: []string{"ITINERO_LEGS_API_KEY"}, Usage: "Routing service API key"},
			&cli.DurationFlag{Name: "route-timeout", Value: itinerary.DefaultRouteTimeout, Usage: "Per-day routing timeout"},
		},
		Action: func(c *cli.Context) error {
			req, err := readRequest(c.App.Reader, c.String("request"))
			if err != nil {
				return outputError(err)
			}

			if _, err := os.Stat(c.String("db")); err != nil {
				return outputError(fmt.Errorf("catalog %s: %w (run itinctl seed first)", c.String("db"), err))
			}
			store, err := localstore.Open(c.String("db"))
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = store.Close() }()

			var router routing.Provider = routing.Unavailable{}
			if u := c.String("legs-url"); u != "" {
				router = routing.NewLegsClient(u, c.String("legs-api-key"))
			}

			engine, err := itinerary.New(itinerary.Deps{
				Places: store,
				Hours:  store,
				Rates:  store,
				Speeds: store,
				Router: router,
			},
				itinerary.WithLogger(loggerFor(c)),
				itinerary.WithRouteTimeout(c.Duration("route-timeout")),
			)
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
			defer cancel()

			it, err := engine.Generate(ctx, req)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, it, c.Bool("pretty"))
		},
	}
}

// checkCmd creates the check command.
func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate a catalog fixture without writing anything",
		ArgsUsage: "FIXTURE.yaml",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.New("check takes exactly one fixture path"))
			}
			cat, err := localstore.LoadFixture(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, seedOutput{
				Places: len(cat.Places),
				Rates:  len(cat.Rates),
				Speeds: len(cat.Speeds),
			}, true)
		},
	}
}

// readRequest decodes a TripRequest from path, or from stdin when path is "-".
func readRequest(stdin io.Reader, path string) (model.TripRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.TripRequest{}, fmt.Errorf("open request: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var req model.TripRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return model.TripRequest{}, errors.New("trip request is empty")
		}
		return model.TripRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// outputJSON writes v to w, indented when pretty is set.
func outputJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// outputError formats an error for the CLI. Validation errors exit with 2.
func outputError(err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return cli.Exit(fmt.Sprintf("[%s] %s", model.ErrCodeInvalidInput, ve.Error()), 2)
	}
	return cli.Exit(err.Error(), 1)
}
