// Package logger provides the structured logging interface used across igvision.
//
// It wraps zerolog behind a small Logger interface so packages can attach
// fields without depending on zerolog directly:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("handle", "natgeo")
//	log.InfoWithFields("post analysed", map[string]interface{}{
//	    "shortcode": "B1x2y3",
//	    "objects":   4,
//	})
//
// Console output is colourised and compact. When a log file is configured
// entries are written to the console and, as JSON lines, to the file.
//
// Tests use NewNopLogger to silence output or NewTestLogger to assert on
// captured messages.
package logger
