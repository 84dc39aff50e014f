package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand   LogType = "CMD"
	TypeComponent LogType = "BTN"
	TypeDB        LogType = "DB"
	TypeSystem    LogType = "SYS"
	TypeError     LogType = "ERR"
)

type Options struct {
	Level     slog.Leveler
	Format    string
	AddSource bool
	NoColor   bool
}

// New returns the JSON handler for format "json" and the console handler
// otherwise.
func New(w io.Writer, opts Options) slog.Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource})
	}
	return &CustomHandler{
		out:  &lockedWriter{w: w},
		opts: opts,
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, p)
}

// CustomHandler prints one colored line per record. The attributes type,
// name, user_name, status and error are folded into the message; the rest
// are appended as key=value pairs.
type CustomHandler struct {
	out    *lockedWriter
	opts   Options
	attrs  []slog.Attr
	groups []string
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	levelColor, levelText := colorGreen, "INFO"
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level < slog.LevelInfo:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	fields := make(map[string]string)
	var extra strings.Builder
	collect := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if isFoldedAttr(a.Key) {
			fields[a.Key] = a.Value.String()
			return
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fmt.Fprintf(&extra, " %s=%v", key, a.Value)
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	message := r.Message
	if r.Level >= slog.LevelError {
		if h.opts.AddSource && r.PC != 0 {
			if src := r.Source(); src != nil {
				message = fmt.Sprintf("%s (%s:%d)", message, filepath.Base(src.File), src.Line)
			}
		}
		if details := fields["error"]; details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	} else if details := fields["error"]; details != "" {
		fmt.Fprintf(&extra, " error=%s", details)
	}
	if fields["name"] != "" && fields["user_name"] != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, fields["name"], fields["user_name"])
	}
	if fields["status"] != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, fields["status"])
	}

	line := fmt.Sprintf("[botim] [%s] [%s] [%s] %s%s\n",
		r.Time.Format("15:04:05"), levelText, logType(fields["type"]), message, extra.String())
	if !h.opts.NoColor {
		line = fmt.Sprintf("%s[botim] [%s] [%s%s%s] [%s] %s%s%s\n",
			colorWhite,
			r.Time.Format("15:04:05"),
			levelColor,
			levelText,
			colorWhite,
			logType(fields["type"]),
			message,
			extra.String(),
			colorReset,
		)
	}
	h.out.write(line)
	return nil
}

// Gateway and rest bucket chatter from disgo.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

func shouldSkipLog(r *slog.Record) bool {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(v string) LogType {
	switch v {
	case "cmd":
		return TypeCommand
	case "component":
		return TypeComponent
	case "db":
		return TypeDB
	case "error":
		return TypeError
	default:
		return TypeSystem
	}
}

func isFoldedAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "error":
		return true
	}
	return false
}
