package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TextHandler writes one colored line per record:
//
//	15:04:05 INFO GET /api/tasks 200 OK error=... key=value
//
// Request columns (method, path, status) are lifted to the front when present.
type TextHandler struct {
	cfg    TextHandlerConfig
	groups []string
	attrs  []slog.Attr
	mu     *sync.Mutex
	w      io.Writer
}

type TextHandlerConfig struct {
	Color      bool
	Level      slog.Leveler
	TimeFormat string
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Leveler) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = level
	}
}

func WithTimeFormat(layout string) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.TimeFormat = layout
	}
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{
		Color:      true,
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *TextHandler) clone() *TextHandler {
	nh := *h
	nh.groups = append([]string(nil), h.groups...)
	nh.attrs = append([]slog.Attr(nil), h.attrs...)
	return &nh
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.cfg.Level.Level()
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := h.clone()
	nh.groups = append(nh.groups, name)
	return nh
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := h.clone()
	nh.attrs = append(nh.attrs, h.qualify(attrs)...)
	return nh
}

func (h *TextHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(h.groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func (h *TextHandler) paint(attr color.Attribute, format string, args ...any) string {
	c := color.New(attr)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf(format, args...)
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	default:
		return color.FgCyan
	}
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	kv := map[string]slog.Value{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	var recordAttrs []slog.Attr
	record.Attrs(func(attr slog.Attr) bool {
		recordAttrs = append(recordAttrs, attr)
		return true
	})
	for _, attr := range h.qualify(recordAttrs) {
		kv[attr.Key] = attr.Value
	}

	var b strings.Builder
	if !record.Time.IsZero() {
		b.WriteString(record.Time.Format(h.cfg.TimeFormat))
		b.WriteByte(' ')
	}
	b.WriteString(h.paint(levelColor(record.Level), "%-5s", record.Level.String()))
	b.WriteByte(' ')
	for _, key := range []string{"method", "path", "status"} {
		if v, ok := kv[key]; ok {
			fmt.Fprintf(&b, "%s ", v)
			delete(kv, key)
		}
	}
	b.WriteString(h.paint(color.FgGreen, "%s", record.Message))
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		b.WriteString(h.paint(color.FgRed, " error=%q", e.String()))
	}
	stack, hasStack := kv[StackAttributeKey]
	delete(kv, StackAttributeKey)

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, kv[k])
	}
	b.WriteByte('\n')
	if hasStack {
		b.WriteString(h.paint(color.Faint, "%s\n", stack.String()))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := io.WriteString(h.w, b.String()); err != nil {
		return fmt.Errorf("can't write log record: %w", err)
	}
	return nil
}
