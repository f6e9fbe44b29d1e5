package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdobak/go-xerrors"

	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
	"igvision/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fail(err)
	}
}

// fail reports a fatal error and exits with status 1. The stack captured by
// xerrors is only logged at debug level.
func fail(err error) {
	traced := xerrors.New(err)

	log := logger.GetLogger()
	log.WithError(err).WithField("kind", string(errs.KindOf(err))).Error("igvision failed")
	log.DebugWithFields("Fatal error detail", map[string]interface{}{
		"detail": xerrors.Sprint(traced),
	})

	printer := ui.NewPrinter(os.Stderr, false)
	if errors.Is(err, context.Canceled) {
		printer.Error("Interrupted")
	} else {
		printer.Error(failureTitle(err), err)
	}
	os.Exit(1)
}

var fatalTitles = map[errs.Kind]string{
	errs.KindConfigLoad: "Configuration error",
	errs.KindModelLoad:  "Failed to load the detection model",
	errs.KindWrite:      "Failed to write the report",
}

// failureTitle names the class of a fatal error for the user
func failureTitle(err error) string {
	if errs.IsFatal(err) {
		return fatalTitles[errs.KindOf(err)]
	}
	return "Error"
}
