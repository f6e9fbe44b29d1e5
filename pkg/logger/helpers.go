package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPost logs the outcome of analysing a single post
func LogPost(log Logger, handle, shortcode string, video bool, objects int) {
	log.DebugWithFields("Post analysed", map[string]interface{}{
		"handle":    handle,
		"shortcode": shortcode,
		"video":     video,
		"objects":   objects,
	})
}

// LogRateLimit logs rate limiting events
func LogRateLimit(log Logger, endpoint string, wait float64) {
	log.WithFields(map[string]interface{}{
		"endpoint":  endpoint,
		"wait_secs": wait,
		"action":    "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogHandleProgress logs how many posts a handle has produced so far
func LogHandleProgress(log Logger, handle string, posts, images int) {
	log.WithFields(map[string]interface{}{
		"handle": handle,
		"posts":  posts,
		"images": images,
	}).Info("Handle progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, settings map[string]interface{}) {
	l := log.WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
