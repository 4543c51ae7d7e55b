// Package component defines renderable terminal components and decorators
// around them.
package component

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Component interface {
	Name() string
	Render(ctx context.Context, w io.Writer) error
}

// Mounter is implemented by components that need setup before the first
// render.
type Mounter interface {
	Mount(ctx context.Context) error
}

type loggedComponent struct {
	inner  Component
	logger *slog.Logger

	once     sync.Once
	mountErr error
}

// WithLogger wraps c so that its first render mounts it and logs
// "component mounted". A nil logger uses slog.Default.
func WithLogger(c Component, logger *slog.Logger) Component {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggedComponent{inner: c, logger: logger}
}

func (l *loggedComponent) Name() string {
	return fmt.Sprintf("WithLogger(%s)", l.inner.Name())
}

func (l *loggedComponent) Render(ctx context.Context, w io.Writer) error {
	l.once.Do(func() {
		if m, ok := l.inner.(Mounter); ok {
			if err := m.Mount(ctx); err != nil {
				l.mountErr = err
				l.logger.ErrorContext(ctx, "component mount failed", "component", l.inner.Name(), "error", err)
				return
			}
		}
		l.logger.InfoContext(ctx, "component mounted", "component", l.inner.Name())
	})
	if l.mountErr != nil {
		return l.mountErr
	}
	return l.inner.Render(ctx, w)
}
