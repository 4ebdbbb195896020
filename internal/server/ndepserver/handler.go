package ndepserver

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/domain"
	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/logger"
)

// decode turns a datagram payload into token text.
func decode(d datagram, maxPayload int) (string, error) {
	if d.oversize {
		return "", domain.ErrTokenMalformed.WithDetails(fmt.Sprintf("payload exceeds %d bytes", maxPayload))
	}
	if !utf8.Valid(d.payload) {
		return "", domain.ErrTokenMalformed.WithDetails("payload is not valid UTF-8")
	}
	return string(bytes.TrimSpace(d.payload)), nil
}

// handle runs one datagram to its terminal outcome. It never returns an
// error; every failure is logged and counted. The request id and sender
// address travel in ctx and are stamped on records by loggers from
// logger.New.
func (s *Server) handle(ctx context.Context, d datagram) {
	source := d.source.String()
	ctx = logger.WithRequestID(ctx, s.newRequestID(d.receivedAt))
	ctx = logger.WithSource(ctx, source)

	resp := s.safeProcess(ctx, d, source)

	elapsed := time.Since(d.receivedAt)
	if s.metrics != nil {
		s.metrics.RecordOutcome(resp.Outcome, elapsed)
		if !resp.Verdict.Token.IsNil() {
			s.metrics.ObserveDrift(resp.Verdict.DeltaMs)
		}
		if resp.HookErr != nil {
			s.metrics.IncHookError()
		}
	}

	s.logOutcome(ctx, resp, elapsed)
}

// safeProcess turns a panic in a store or hook into rejected_unavailable so
// the receive loop keeps running.
func (s *Server) safeProcess(ctx context.Context, d datagram, source string) (resp *service.EnrollResponse) {
	defer func() {
		if r := recover(); r != nil {
			if s.metrics != nil {
				s.metrics.IncPanic()
			}
			s.logger.ErrorContext(ctx, "panic recovered while handling datagram",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp = &service.EnrollResponse{
				Outcome: domain.OutcomeRejectedUnavailable,
				Err:     domain.ErrInternal.WithDetails(fmt.Sprint(r)),
			}
		}
	}()
	return s.process(ctx, d, source)
}

func (s *Server) process(ctx context.Context, d datagram, source string) *service.EnrollResponse {
	if !s.limiter.Allow(d.source.Addr().String()) {
		return &service.EnrollResponse{
			Outcome: domain.OutcomeRejectedThrottled,
			Err:     domain.ErrThrottled,
		}
	}

	text, err := decode(d, s.cfg.MaxPayload)
	if err != nil {
		return &service.EnrollResponse{
			Outcome: domain.OutcomeRejectedMalformed,
			Err:     err,
		}
	}

	return s.svc.Enroll(ctx, &service.EnrollRequest{
		Token:      text,
		Source:     source,
		ReceivedAt: d.receivedAt,
	})
}

func (s *Server) logOutcome(ctx context.Context, resp *service.EnrollResponse, elapsed time.Duration) {
	attrs := []any{
		"outcome", resp.Outcome.String(),
		"elapsed", elapsed,
	}
	if !resp.Verdict.Token.IsNil() {
		attrs = append(attrs,
			"token", resp.Verdict.Token.String(),
			"delta_ms", resp.Verdict.DeltaMs,
		)
	}
	if resp.Err != nil {
		attrs = append(attrs, "error", resp.Err)
	}

	switch resp.Outcome {
	case domain.OutcomeAccepted:
		s.logger.InfoContext(ctx, "enrollment accepted", attrs...)
		if resp.HookErr != nil {
			s.logger.ErrorContext(ctx, "acceptance hook failed", "error", resp.HookErr)
		}
	case domain.OutcomeRejectedThrottled:
		s.logger.DebugContext(ctx, "enrollment rejected", attrs...)
	case domain.OutcomeRejectedUnavailable:
		s.logger.ErrorContext(ctx, "enrollment rejected", attrs...)
	default:
		s.logger.WarnContext(ctx, "enrollment rejected", attrs...)
	}
}
