package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/railpal/internal/api/railway"
	"github.com/danpilch/railpal/internal/booking"
	"github.com/danpilch/railpal/internal/browser"
	"github.com/danpilch/railpal/internal/config"
	"github.com/danpilch/railpal/internal/notify"
	"github.com/danpilch/railpal/internal/prompt"
)

var CLI struct {
	Config    string `help:"Optional YAML config file; environment variables override it" type:"path"`
	EnvFile   string `help:"Dotenv file loaded before reading the environment" default:".env" type:"path"`
	LogLevel  string `help:"Log level" default:"info" enum:"debug,info,warn,error"`
	NoBrowser bool   `help:"Print the payment link instead of opening a browser"`
	Yes       bool   `short:"y" help:"Skip the initial go-ahead prompt"`
}

func main() {
	kong.Parse(&CLI, kong.Description("Book railway seats and hand off to payment."))
	os.Exit(run())
}

func run() int {
	// Setup structured logging with logfmt
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(CLI.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	log := logger.WithField("run_id", uuid.NewString())

	if err := config.LoadEnvFile(CLI.EnvFile); err != nil {
		return fatal(err)
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fatal(err)
	}

	client := railway.NewClient(railway.Options{
		BaseURL:  cfg.BaseURL,
		DeviceID: cfg.DeviceID,
		Referer:  cfg.Referer,
		Timeout:  cfg.RequestTimeout(),
	})

	var opener booking.Opener = browser.System{}
	if CLI.NoBrowser {
		opener = browser.LogOnly{Logger: log}
	}

	var notifier *notify.Notifier
	if cfg.Pushover.Enabled() {
		notifier = notify.NewNotifier(cfg.Pushover.Token, cfg.Pushover.User, log)
	}

	// Setup signal handling; an interrupt aborts the run and releases seats
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tx := booking.NewTransaction(client, prompt.NewTerminal(os.Stdin, os.Stdout), opener, booking.Options{
		Mobile:               cfg.Mobile,
		Password:             cfg.Password,
		FromCity:             cfg.FromCity,
		ToCity:               cfg.ToCity,
		DateOfJourney:        cfg.DateOfJourney,
		SeatClass:            cfg.SeatClass,
		Seats:                cfg.Seats(),
		TrainNames:           cfg.TrainNames,
		PreferredCoaches:     cfg.PreferredCoaches,
		PreferredSeatNumbers: cfg.PreferredSeats,
		SkipGoAhead:          CLI.Yes,
	}, log)

	log.WithFields(logrus.Fields{
		"route": cfg.FromCity + " -> " + cfg.ToCity,
		"date":  cfg.DateOfJourney,
		"class": cfg.SeatClass,
		"seats": cfg.Seats(),
	}).Info("starting railpal")

	res, err := tx.Run(ctx)
	if err == nil {
		log.WithField("url", res.RedirectURL).Info("booking confirmed, complete payment in your browser")
		if notifier != nil {
			seats := make([]string, len(res.Seats))
			for i, s := range res.Seats {
				seats[i] = s.SeatNumber
			}
			if nErr := notifier.SendBookingConfirmed(res.Trip.Label, seats, res.RedirectURL); nErr != nil {
				log.WithField("error", nErr).Warn("failed to send notification")
			}
		}
		return 0
	}

	if notifier != nil && res != nil && res.Rollback != nil {
		train := ""
		if res.Trip != nil {
			train = res.Trip.Label
		}
		failed := len(res.Rollback.Failed())
		if nErr := notifier.SendRollback(train, len(res.Rollback)-failed, failed, err.Error()); nErr != nil {
			log.WithField("error", nErr).Warn("failed to send notification")
		}
	}

	if errors.Is(err, booking.ErrCancelled) {
		log.WithField("reason", err).Info("booking cancelled")
		return 0
	}
	return fatal(err)
}

// fatal prints err, and the API response behind it if any, to stderr.
func fatal(err error) int {
	printFatal(os.Stderr, err)
	return 1
}

func printFatal(w io.Writer, err error) {
	fmt.Fprintln(w, "[rail][FATAL]", err)

	var detail any
	var bErr *booking.Error
	var apiErr *railway.APIError
	switch {
	case errors.As(err, &bErr):
		detail = bErr.Detail()
	case errors.As(err, &apiErr):
		detail = apiErr.Detail()
	}
	if detail == nil {
		return
	}
	out, mErr := json.MarshalIndent(detail, "", "  ")
	if mErr != nil {
		fmt.Fprintf(w, "%v\n", detail)
		return
	}
	fmt.Fprintln(w, string(out))
}
