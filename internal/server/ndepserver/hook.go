package ndepserver

import (
	"context"
	"log/slog"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
)

// LogHook returns an acceptance hook that records each enrolled device.
// Pairing happens downstream; this is the hand-off point. The sender address
// comes from the context, so logger should be built with logger.New.
func LogHook(logger *slog.Logger) service.AcceptHook {
	return service.AcceptHookFunc(func(ctx context.Context, e service.Enrollment) error {
		logger.InfoContext(ctx, "device ready for pairing",
			"token", e.Token.String(),
			"token_time", e.Token.Timestamp(),
			"received_at", e.ReceivedAt,
		)
		return nil
	})
}
