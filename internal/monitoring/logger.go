package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
	w io.Writer
}

// NewLogger creates a JSON logger on stdout
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, slog.LevelInfo)
}

// NewLoggerTo creates a JSON logger writing to w
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	return &Logger{Logger: slog.New(newHandler(w, level)), w: w}
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs a completed prediction
func (l *Logger) PredictionLogger(reviews int, avgScore, probability float64, rule, method string, duration time.Duration) {
	l.Info("Prediction Completed",
		"reviews", reviews,
		"avg_score", avgScore,
		"probability", probability,
		"rule", rule,
		"prediction_method", method,
		"duration_ms", duration.Milliseconds(),
	)
}

// CorpusLogger logs the state of one loaded corpus year
func (l *Logger) CorpusLogger(year string, papers, accepted int, acceptanceRate float64) {
	l.Info("Corpus Year Ready",
		"year", year,
		"papers", papers,
		"accepted", accepted,
		"acceptance_rate", acceptanceRate,
	)
}

// APIErrorLogger logs API errors with the caller that reported them
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", Uptime().Round(time.Second).String(),
	)
}

// SecurityLogger logs security-related events such as failed admin logins
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]any) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Log(context.Background(), slog.LevelWarn, "Security Event", attrs...)
}

// SetLevel replaces the handler with one at the given level
func (l *Logger) SetLevel(level slog.Level) {
	w := l.w
	if w == nil {
		w = os.Stdout
	}
	l.Logger = slog.New(newHandler(w, level))
}

var startTime = time.Now()

// Uptime returns the time since the process started
func Uptime() time.Duration {
	return time.Since(startTime)
}
