package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"calnorm/internal/caldav"
	"calnorm/internal/datetime"
	"calnorm/internal/google"
	"calnorm/internal/ics"
	"calnorm/internal/microsoft"
	"calnorm/internal/models"
	"calnorm/internal/provider"
	"calnorm/internal/recurrence"
	"calnorm/internal/syncer"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google or Microsoft account to get an API token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Value: string(models.ProviderGoogle), Usage: "google or microsoft"},
			&cli.StringFlag{Name: "account", Usage: "Name for this account (e.g., 'personal', 'work')."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			p := models.Provider(c.String("provider"))
			logger.Info("Starting authentication flow.", "provider", p)

			var oc *oauth2.Config
			switch p {
			case models.ProviderGoogle:
				oc, err = google.OAuthConfig(google.Credentials{ClientID: cfg.Google.ClientID, ClientSecret: cfg.Google.ClientSecret})
			case models.ProviderMicrosoft:
				oc, err = microsoft.OAuthConfig(microsoftCredentials(cfg))
			default:
				return fmt.Errorf("unknown provider %q", p)
			}
			if err != nil {
				return fmt.Errorf("failed to get %s oauth config: %w", p, err)
			}

			authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code or the URL you were redirected to: \n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			authCode := extractCode(prompt(reader, "Enter Authorization Code: "))

			token, err := oc.Exchange(c.Context, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			account := c.String("account")
			if account == "" {
				account = prompt(reader, "Enter a name for this account (e.g., 'personal', 'work'): ")
			}
			tokenFile := provider.TokenFile(cfg.TokenDir, p, account)
			if err := provider.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Fetch events from every account and write them as canonical JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Output file, stdout by default."},
			&cli.IntFlag{Name: "days", Usage: "Look-ahead in days, overrides the config."},
			&cli.StringFlag{Name: "schedule", Usage: "Cron expression; keep running and pull on every tick."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			days := cfg.HorizonDays
			if c.IsSet("days") {
				days = c.Int("days")
			}
			targets, err := buildTargets(c.Context, logger, cfg)
			if err != nil {
				return err
			}

			pull := func(ctx context.Context) error {
				events, complete := syncer.FetchAll(ctx, logger, targets, provider.NextDays(time.Now(), days))
				if !complete {
					logger.Warn("Some calendars could not be fetched")
				}

				out, err := openOutput(c.String("out"))
				if err != nil {
					return fmt.Errorf("failed to open output: %w", err)
				}
				defer out.Close()
				logger.Info("Fetched events.", "count", len(events))
				return writeJSON(out, events)
			}

			if spec := c.String("schedule"); spec != "" {
				return runSchedule(c.Context, logger, spec, pull)
			}
			return pull(c.Context)
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert provider event or calendar JSON into the canonical model.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Required: true, Usage: "google or microsoft"},
			&cli.StringFlag{Name: "kind", Value: "event", Usage: "event or calendar"},
			&cli.StringFlag{Name: "account", Usage: "Account id to scope the result to."},
			&cli.StringFlag{Name: "calendar", Usage: "Calendar id to scope events to."},
			&cli.StringFlag{Name: "in", Usage: "Input file, stdin by default."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			codec, err := codecFor(models.Provider(c.String("provider")), logger)
			if err != nil {
				return err
			}
			data, err := readInput(c.String("in"))
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			out, err := convertDocuments(codec, c.String("kind"), models.Scope{
				AccountID:  c.String("account"),
				CalendarID: c.String("calendar"),
			}, data)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, out)
		},
	}
}

// convertDocuments decodes every provider document in data. Events that lack
// required fields fail the whole conversion.
func convertDocuments(codec provider.Codec, kind string, scope models.Scope, data []byte) ([]any, error) {
	docs, err := splitDocuments(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(docs))
	for i, doc := range docs {
		switch kind {
		case "event":
			ev, err := codec.DecodeEvent(doc, scope)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			out = append(out, ev)
		case "calendar":
			cal, err := codec.DecodeCalendar(doc, scope.AccountID)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			out = append(out, cal)
		default:
			return nil, fmt.Errorf("unknown kind %q", kind)
		}
	}
	return out, nil
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Build the provider payload for a canonical create or update input.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "update", Usage: "Treat the input as an update."},
			&cli.StringFlag{Name: "in", Usage: "Input file, stdin by default."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			data, err := readInput(c.String("in"))
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			payload, err := encodeInput(logger, data, c.Bool("update"))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(payload, '\n'))
			return err
		},
	}
}

func encodeInput(logger *slog.Logger, data []byte, update bool) ([]byte, error) {
	if update {
		var in models.UpdateEventInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("failed to parse update input: %w", err)
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		codec, err := codecFor(in.Provider, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("Encoding update", "provider", in.Provider, "eventID", in.EventID)
		return codec.EncodeUpdate(&in)
	}

	var in models.EventInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	codec, err := codecFor(in.Provider, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("Encoding event", "provider", in.Provider)
	return codec.EncodeEvent(&in)
}

func expandCommand() *cli.Command {
	return &cli.Command{
		Name:  "expand",
		Usage: "List the occurrences of a canonical recurring event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "Canonical event JSON, stdin by default."},
			&cli.TimestampFlag{Name: "from", Layout: time.RFC3339, Usage: "Range start, now by default."},
			&cli.TimestampFlag{Name: "to", Layout: time.RFC3339, Usage: "Range end, one year after the start by default."},
		},
		Action: func(c *cli.Context) error {
			data, err := readInput(c.String("in"))
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			events, err := readEvents(data)
			if err != nil {
				return err
			}

			from := time.Now()
			if t := c.Timestamp("from"); t != nil {
				from = *t
			}
			to := from.AddDate(1, 0, 0)
			if t := c.Timestamp("to"); t != nil {
				to = *t
			}

			for _, ev := range events {
				if ev.Recurrence == nil {
					continue
				}
				occ, err := recurrence.Expand(ev.Recurrence, ev.Start, from, to)
				if err != nil {
					return fmt.Errorf("failed to expand %s: %w", ev.ID, err)
				}
				for _, t := range occ {
					if datetime.IsDate(ev.Start) {
						fmt.Printf("%s\t%s\n", ev.ID, t.Format(datetime.DateLayout))
						continue
					}
					fmt.Printf("%s\t%s\n", ev.ID, t.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func icsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ics",
		Usage: "Render canonical events, such as the output of pull, as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "Canonical events JSON, stdin by default."},
			&cli.StringFlag{Name: "out", Usage: "Output file, stdout by default."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			data, err := readInput(c.String("in"))
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			events, err := readEvents(data)
			if err != nil {
				return err
			}

			now := time.Now()
			var comps []*goical.Component
			for i := range events {
				ve, err := ics.Event(&events[i], ics.StableUID(&events[i]), now)
				if err != nil {
					logger.Error("Skipping event", "eventID", events[i].ID, "error", err)
					continue
				}
				comps = append(comps, ve)
			}

			out, err := openOutput(c.String("out"))
			if err != nil {
				return fmt.Errorf("failed to open output: %w", err)
			}
			defer out.Close()
			return ics.Encode(out, ics.NewCalendar(comps...))
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Mirror events from every account into the CalDAV calendar.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be published without making changes."},
			&cli.BoolFlag{Name: "prune", Usage: "Remove published events that vanished from the sources."},
			&cli.StringFlag{Name: "schedule", Usage: "Cron expression; keep running and publish on every tick."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			targets, err := buildTargets(c.Context, logger, cfg)
			if err != nil {
				return err
			}

			publisher, err := caldav.NewClient(c.Context, logger, caldav.Options{
				Endpoint:     cfg.CalDAV.Endpoint,
				Username:     cfg.CalDAV.Username,
				Password:     cfg.CalDAV.Password,
				Calendar:     cfg.CalDAV.Calendar,
				CalendarPath: cfg.CalDAV.CalendarPath,
			})
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			s, err := syncer.NewSyncer(logger, targets, publisher, caldav.GenerateUID, syncer.Options{
				StateFile:       cfg.StateFile,
				DryRun:          c.Bool("dry-run"),
				Days:            cfg.HorizonDays,
				PrimaryTimeZone: loc,
				Prune:           cfg.Prune || c.Bool("prune"),
			})
			if err != nil {
				return fmt.Errorf("failed to create syncer: %w", err)
			}

			if spec := c.String("schedule"); spec != "" {
				return runSchedule(c.Context, logger, spec, s.Sync)
			}
			logger.Info("Running a single sync cycle.")
			if err := s.Sync(c.Context); err != nil {
				return fmt.Errorf("single sync cycle failed: %w", err)
			}
			return nil
		},
	}
}
