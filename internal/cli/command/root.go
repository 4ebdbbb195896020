package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rob-jonesdevlab/ods-signage/internal/cli/connection"
	"github.com/rob-jonesdevlab/ods-signage/internal/cli/output"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/buildinfo"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/logger"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// DefaultTokenFile is where the last minted token is kept for the
// provisioning scripts.
const DefaultTokenFile = "/boot/device_uuid.txt"

// Env holds the dependencies an App runs with. Zero fields are filled with
// production defaults.
type Env struct {
	Generator *token.Generator
	Stdout    io.Writer
	Stderr    io.Writer
}

func (e Env) withDefaults() Env {
	if e.Generator == nil {
		e.Generator = token.NewGenerator()
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	return e
}

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return NewApp(Env{})
}

// NewApp creates the CLI application with explicit dependencies.
func NewApp(env Env) *cli.App {
	env = env.withDefaults()

	app := &cli.App{
		Name:      "ndep-device",
		Usage:     "Mint a one-time enrollment token and send it to the enrollment server",
		UsageText: "ndep-device [global options] <serverAddress> <port>\n" +
			"ndep-device [global options] enroll <serverAddress> <port>\n" +
			"ndep-device check --ops <addr>\n\n" +
			"A server address that is also a command name (check, enroll) must be\n" +
			"given through enroll, e.g. ndep-device enroll check 9999.",
		ArgsUsage: "<serverAddress> <port>",
		// Keeps "help" usable as a server address; --help still works.
		HideHelpCommand: true,
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Writer:    env.Stdout,
		ErrWriter: env.Stderr,
		Action:    enrollAction,
		Commands: []*cli.Command{
			EnrollCommand(),
			CheckCommand(),
		},
		Before: func(c *cli.Context) error {
			if _, err := output.ParseFormat(c.String("output")); err != nil {
				return err
			}
			if !logger.ValidLevel(c.String("log-level")) {
				return fmt.Errorf("invalid log level %q", c.String("log-level"))
			}
			return nil
		},
		Metadata: map[string]any{envKey: env},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "token-file",
			Aliases: []string{"f"},
			Usage:   "File the minted token is written to (empty disables)",
			EnvVars: []string{"NDEP_TOKEN_FILE"},
			Value:   DefaultTokenFile,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Deadline for name resolution and the send",
			EnvVars: []string{"NDEP_TIMEOUT"},
			Value:   connection.DefaultSendTimeout,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"NDEP_LOG_LEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json",
			Value:   "text",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	TokenFile string
	Timeout   time.Duration
	LogLevel  string
	Output    output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		TokenFile: c.String("token-file"),
		Timeout:   c.Duration("timeout"),
		LogLevel:  c.String("log-level"),
		Output:    format,
	}
}

// envFrom retrieves the App's Env from context.
func envFrom(c *cli.Context) Env {
	if env, ok := c.App.Metadata[envKey].(Env); ok {
		return env
	}
	return Env{}.withDefaults()
}

// newLogger builds the stderr logger for one invocation.
func newLogger(c *cli.Context, env Env) (*slog.Logger, error) {
	return logger.New(logger.Config{
		Level:  ParseGlobalFlags(c).LogLevel,
		Format: "text",
		Output: env.Stderr,
	})
}

// render writes rec to stdout in the selected format.
func render(c *cli.Context, env Env, rec output.Record) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output).Format(env.Stdout, rec)
}

// errUsage marks argument errors.
var errUsage = errors.New("usage")

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
