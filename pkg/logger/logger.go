package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Reservation logging methods

// LogReservationMerged logs a successful reserve/merge, including how many
// ids the endpoint newly confirmed (0 for a local-only refresh).
func (l *Logger) LogReservationMerged(ctx context.Context, eventID string, ticketIDs []string, newlyConfirmed int) {
	l.Logger.InfoContext(ctx,
		"Reservation Merged",
		slog.String("event_id", eventID),
		slog.Int("held_tickets", len(ticketIDs)),
		slog.Int("newly_confirmed", newlyConfirmed),
	)
}

// LogReservationCleared logs an explicit reservation clear
func (l *Logger) LogReservationCleared(ctx context.Context, eventID string) {
	l.Logger.InfoContext(ctx,
		"Reservation Cleared",
		slog.String("event_id", eventID),
	)
}

// Stream logging methods

// LogStreamConnected logs a successful stream (re)connection
func (l *Logger) LogStreamConnected(eventID string, attempt int) {
	l.Logger.Info("Ticket Stream Connected",
		slog.String("event_id", eventID),
		slog.Int("attempt", attempt),
	)
}

// LogStreamReconnecting logs a scheduled reconnection attempt
func (l *Logger) LogStreamReconnecting(eventID string, attempt int, delay time.Duration) {
	l.Logger.Warn("Ticket Stream Reconnecting",
		slog.String("event_id", eventID),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
	)
}

// LogStreamExhausted logs that reconnection attempts ran out
func (l *Logger) LogStreamExhausted(eventID string, attempts int) {
	l.Logger.Error("Ticket Stream Exhausted",
		slog.String("event_id", eventID),
		slog.Int("attempts", attempts),
	)
}

// Booking logging methods

// LogTicketsReserved logs server-side lock acquisition for a set of tickets
func (l *Logger) LogTicketsReserved(ctx context.Context, ticketIDs []string) {
	l.Logger.InfoContext(ctx,
		"Tickets Reserved",
		slog.Int("ticket_count", len(ticketIDs)),
	)
}

// LogTicketsPurchased logs a completed purchase
func (l *Logger) LogTicketsPurchased(ctx context.Context, purchaseID string, ticketIDs []string, totalCents int) {
	l.Logger.InfoContext(ctx,
		"Tickets Purchased",
		slog.String("purchase_id", purchaseID),
		slog.Int("ticket_count", len(ticketIDs)),
		slog.Int("total_cents", totalCents),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
