package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalOptions are shared by every command
type globalOptions struct {
	settings string
	logLevel string
	logFile  string
	quiet    bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	analyse := &analyseOptions{}

	root := &cobra.Command{
		Use:   "igvision [analyse] <handle|file>",
		Short: "Count the objects in an Instagram user's photos",
		Long: `igvision fetches the posts of Instagram users, runs a YOLO object detector
over every photo and writes one report row per post: date, likes, comments,
caption length, hashtag count, video flag and one count column per label.

Running igvision with a handle is the same as 'igvision analyse <handle>'.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			return runAnalyse(cmd, global, analyse, args[0])
		},
	}

	root.PersistentFlags().StringVar(&global.settings, "settings", "", "settings file (default .igvision.yaml or ~/.config/igvision/config.yaml)")
	root.PersistentFlags().StringVar(&global.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&global.logFile, "log-file", "", "also write JSON logs to this file")
	root.PersistentFlags().BoolVarP(&global.quiet, "quiet", "q", false, "only print errors")
	root.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "print a line per analysed post")
	addAnalyseFlags(root, analyse)

	root.SetVersionTemplate(`igvision {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newAnalyseCmd(global),
		newAuthCmd(),
		newSettingsCmd(global),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "igvision %s (commit: %s, built: %s, %s %s/%s)\n",
				version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
