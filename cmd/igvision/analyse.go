package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igvision/pkg/auth"
	"igvision/pkg/config"
	"igvision/pkg/detector"
	"igvision/pkg/detector/darknet"
	errs "igvision/pkg/errors"
	"igvision/pkg/instagram"
	"igvision/pkg/labels"
	"igvision/pkg/logger"
	"igvision/pkg/pipeline"
	"igvision/pkg/report"
	"igvision/pkg/storage"
	"igvision/pkg/ui"
)

// analyseOptions are the flags of the analyse command that are not merged
// into the settings
type analyseOptions struct {
	list    bool
	since   string
	until   string
	account string
}

// settingsFlags maps flag names to the keys config.MergeCommandLineFlags reads
var settingsFlags = []string{
	"names", "config", "weights", "output", "sqlite", "media-dir",
	"rate-limit", "class-aware-nms", "timezone",
}

func addAnalyseFlags(cmd *cobra.Command, opts *analyseOptions) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()

	f.BoolVarP(&opts.list, "list", "l", false, "treat the argument as a file with one handle per line")
	f.String("names", defaults.Model.NamesFile, "class names file, one label per line")
	f.String("config", defaults.Model.ConfigFile, "darknet model configuration")
	f.String("weights", defaults.Model.WeightsFile, "darknet model weights")
	f.StringP("output", "o", defaults.Report.Output, "CSV report path")
	f.String("sqlite", "", "also write the report to this SQLite database")
	f.String("media-dir", defaults.Download.MediaDirectory, "directory downloaded images are kept in")
	f.Int("rate-limit", defaults.RateLimit.RequestsPerMinute, "API requests per minute")
	f.Bool("class-aware-nms", false, "suppress overlapping boxes only within the same class")
	f.String("timezone", defaults.Report.Timezone, "time zone of report dates, e.g. Europe/Berlin")
	f.StringVar(&opts.since, "since", "", "skip posts older than this date (YYYY-MM-DD)")
	f.StringVar(&opts.until, "until", "", "skip posts newer than this date (YYYY-MM-DD, inclusive)")
	f.StringVarP(&opts.account, "account", "a", "", "stored account to log in with")
}

func newAnalyseCmd(global *globalOptions) *cobra.Command {
	opts := &analyseOptions{}
	cmd := &cobra.Command{
		Use:   "analyse <handle|file>",
		Short: "Analyse the posts of one or more handles",
		Example: `  # Analyse one profile with the default model files
  igvision analyse natgeo

  # Analyse every handle listed in a file into a custom report
  igvision analyse -l handles.txt --output report.csv --sqlite report.db

  # Only posts from 2023
  igvision natgeo --since 2023-01-01 --until 2023-12-31`,
		Aliases: []string{"analyze"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(cmd, global, opts, args[0])
		},
	}
	addAnalyseFlags(cmd, opts)
	return cmd
}

// changedFlags collects the flags the user set, keyed for
// config.MergeCommandLineFlags
func changedFlags(cmd *cobra.Command, global *globalOptions) map[string]interface{} {
	flags := make(map[string]interface{})
	f := cmd.Flags()
	for _, name := range settingsFlags {
		fl := f.Lookup(name)
		if fl == nil || !fl.Changed {
			continue
		}
		switch name {
		case "rate-limit":
			v, _ := f.GetInt(name)
			flags[name] = v
		case "class-aware-nms":
			v, _ := f.GetBool(name)
			flags[name] = v
		default:
			flags[name] = fl.Value.String()
		}
	}
	if global.logLevel != "" {
		flags["log-level"] = global.logLevel
	}
	if global.logFile != "" {
		flags["log-file"] = global.logFile
	}
	return flags
}

// loadSettings loads the settings and initialises the global logger
func loadSettings(cmd *cobra.Command, global *globalOptions) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(global.settings, changedFlags(cmd, global))
	if err != nil {
		return nil, nil, errs.ConfigLoad(global.settings, err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, errs.ConfigLoad(global.settings, err)
	}
	return cfg, logger.GetLogger(), nil
}

func runAnalyse(cmd *cobra.Command, global *globalOptions, opts *analyseOptions, arg string) error {
	ctx := cmd.Context()

	cfg, log, err := loadSettings(cmd, global)
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(os.Stderr, global.quiet)

	// labels first: a bad names file fails before any network or model work
	set, err := labels.Load(cfg.Model.NamesFile)
	if err != nil {
		return err
	}
	if err := report.CheckLabels(set); err != nil {
		return errs.ConfigLoad(cfg.Model.NamesFile, err)
	}

	handles, err := pipeline.Handles(arg, opts.list, log)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return errs.ConfigLoad(global.settings, err)
	}
	tr, err := timeRange(opts.since, opts.until, loc)
	if err != nil {
		return errs.ConfigLoad("", err)
	}

	if err := applyAccount(cfg, opts.account, log); err != nil {
		return err
	}

	net, err := darknet.Load(cfg.Model.ConfigFile, cfg.Model.WeightsFile, darknet.WithInputSize(cfg.Model.InputSize))
	if err != nil {
		return err
	}
	det := detector.New(net, set,
		detector.WithSuppressor(darknet.Suppressor{}),
		detector.WithThresholds(cfg.Model.ConfidenceThreshold, cfg.Model.NMSThreshold),
		detector.WithClassAwareSuppression(cfg.Model.ClassAwareNMS),
		detector.WithLogger(log),
	)
	defer det.Close()

	store, err := storage.NewManager(cfg.Download.MediaDirectory)
	if err != nil {
		return err
	}

	client := instagram.NewClientFromConfig(cfg, log)
	if client.Session().Anonymous() {
		printer.Dim("No Instagram session configured, fetching anonymously")
	}

	printer.Info("Handles", fmt.Sprintf("%d", len(handles)))
	printer.Info("Model", net.String())

	p := pipeline.New(instagram.NewFeed(client), store, det, set,
		pipeline.WithLocation(loc),
		pipeline.WithProgress(ui.NewProgressDisplay(printer, global.verbose)),
		pipeline.WithLogger(log),
	)
	result, err := p.Run(ctx, handles, tr)
	if err != nil {
		return err
	}

	outputs := pipeline.OutputsFromConfig(cfg.Report)
	if err := outputs.Write(result.Report); err != nil {
		return err
	}
	printer.Summary(result, outputs)
	return nil
}

// applyAccount fills the session from stored credentials unless the settings
// already carry one. A named account must exist; otherwise missing or
// unreadable credentials fall back to anonymous access.
func applyAccount(cfg *config.Config, name string, log logger.Logger) error {
	if cfg.Instagram.SessionID != "" && name == "" {
		return nil
	}

	dir, err := auth.ConfigDir()
	if err != nil {
		return credentialError(name, err, log)
	}
	manager, err := auth.NewManager(dir)
	if err != nil {
		return credentialError(name, err, log)
	}

	account, err := manager.Resolve(name)
	if err != nil {
		return credentialError(name, err, log)
	}
	if account == nil {
		return nil
	}

	if name != "" {
		cfg.Instagram.SessionID = ""
	}
	account.ApplyTo(&cfg.Instagram)
	log.WithField("account", account.Username).Info("Using stored credentials")
	return nil
}

func credentialError(name string, err error, log logger.Logger) error {
	if name != "" {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return errs.ConfigLoad("account "+name, fmt.Errorf("%w; run 'igvision auth list'", err))
		}
		return errs.ConfigLoad("account "+name, err)
	}
	log.WithError(err).Warn("Credential store unavailable, continuing anonymously")
	return nil
}
