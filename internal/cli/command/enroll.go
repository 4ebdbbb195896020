package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rob-jonesdevlab/ods-signage/internal/cli/connection"
	"github.com/rob-jonesdevlab/ods-signage/internal/cli/output"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// enrollAction mints a token, persists it best-effort and sends it once.
func enrollAction(c *cli.Context) error {
	env := envFrom(c)
	flags := ParseGlobalFlags(c)

	host, port, err := parseTarget(c.Args().Slice())
	if err != nil {
		return err
	}

	log, err := newLogger(c, env)
	if err != nil {
		return err
	}

	tok, err := env.Generator.New()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	log.Info("token generated", "token", tok.String(), "timestamp_ms", tok.UnixMilli())

	persisted := false
	if flags.TokenFile != "" {
		if err := persistToken(flags.TokenFile, tok); err != nil {
			log.Warn("could not save token", "path", flags.TokenFile, "error", err)
		} else {
			persisted = true
			log.Debug("token saved", "path", flags.TokenFile)
		}
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sender := connection.NewSender(connection.WithTimeout(flags.Timeout))
	dst, err := sender.Send(ctx, host, port, []byte(tok.String()))
	if err != nil {
		log.Error("enrollment send failed", "server", connection.JoinHostPort(host, port), "error", err)
		return fmt.Errorf("send enrollment: %w", err)
	}
	log.Info("enrollment sent", "destination", dst.String())

	return render(c, env, output.Record{}.
		Add("token", tok.String()).
		Add("timestamp", tok.Timestamp()).
		Add("destination", dst.String()).
		Add("token_file", flags.TokenFile).
		Add("persisted", persisted))
}

// EnrollCommand is the explicit form of the default action, for server
// addresses that collide with a command name.
func EnrollCommand() *cli.Command {
	return &cli.Command{
		Name:            "enroll",
		Usage:           "Mint a token and send it (same as the default action)",
		ArgsUsage:       "<serverAddress> <port>",
		HideHelpCommand: true,
		Action:          enrollAction,
	}
}

// parseTarget validates the two positional arguments.
func parseTarget(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("%w: expected <serverAddress> <port>, got %d argument(s)", errUsage, len(args))
	}

	host := strings.TrimSpace(args[0])
	if host == "" {
		return "", 0, fmt.Errorf("%w: empty server address", errUsage)
	}

	port, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: invalid port %q", errUsage, args[1])
	}
	return host, port, nil
}

// persistToken writes the canonical token text, without a trailing newline,
// replacing any previous file atomically. The file is created 0600.
func persistToken(path string, tok token.Token) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".device_uuid-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(tok.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
