package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rob-jonesdevlab/ods-signage/internal/cli/connection"
	"github.com/rob-jonesdevlab/ods-signage/internal/cli/output"
)

// ErrClockSkew is returned when the local clock is outside the server's
// drift window; tokens minted here would be rejected.
var ErrClockSkew = errors.New("local clock outside server drift window")

// CheckCommand returns the check command.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check server readiness and local clock skew before enrolling",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ops",
				Usage:    "Ops HTTP address of the enrollment server (e.g., 10.0.0.5:9998)",
				EnvVars:  []string{"NDEP_OPS_ADDR"},
				Required: true,
			},
		},
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
	env := envFrom(c)
	flags := ParseGlobalFlags(c)

	log, err := newLogger(c, env)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	client := connection.NewOpsClient(c.String("ops"), flags.Timeout)

	sent := time.Now()
	info, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("query %s: %w", client.BaseURL(), err)
	}
	rtt := time.Since(sent)

	ready, readyErr := client.Ready(ctx)
	if readyErr != nil {
		log.Warn("server not ready", "server", client.BaseURL(), "error", readyErr)
	}

	// Server time is taken halfway through the round trip.
	var skew time.Duration
	if !info.ServerTime.IsZero() {
		skew = sent.Add(rtt / 2).Sub(info.ServerTime)
	}
	within := absDuration(skew) <= info.DriftLimit()

	rec := output.Record{}.
		Add("server", client.BaseURL()).
		Add("version", info.Version).
		Add("status", ready.Status).
		Add("checks", ready.Checks).
		Add("drift_limit", info.DriftLimit()).
		Add("registration_ttl", time.Duration(info.RegistrationTTLMs)*time.Millisecond).
		Add("clock_skew", skew.Round(time.Millisecond)).
		Add("within_window", within)
	if err := render(c, env, rec); err != nil {
		return err
	}

	if readyErr != nil {
		return fmt.Errorf("server not ready: %w", readyErr)
	}
	if !within {
		return fmt.Errorf("%w: skew %s, limit %s", ErrClockSkew, skew.Round(time.Millisecond), info.DriftLimit())
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
