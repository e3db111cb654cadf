package db

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Execer runs DDL statements
type Execer interface {
	ExecStatement(ctx context.Context, stmt string) error
}

// ExecSink executes every statement it receives on a live connection. It
// stops at the first failure; statements that already ran stay applied.
type ExecSink struct {
	ctx      context.Context
	execer   Execer
	logger   *zap.Logger
	executed int
}

// NewExecSink creates a sink running statements through execer
func NewExecSink(ctx context.Context, execer Execer, logger *zap.Logger) *ExecSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecSink{ctx: ctx, execer: execer, logger: logger}
}

// WriteStatement executes the statement
func (s *ExecSink) WriteStatement(stmt string) error {
	if err := s.ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if err := s.execer.ExecStatement(s.ctx, stmt); err != nil {
		s.logger.Error("statement failed", zap.String("sql", stmt), zap.Error(err))
		return errors.Annotatef(err, "executing statement %d", s.executed+1)
	}
	s.executed++
	s.logger.Info("statement executed", zap.Int("count", s.executed))
	return nil
}

// Executed returns the number of statements that ran successfully
func (s *ExecSink) Executed() int {
	return s.executed
}
