// protector-check runs JavaScript tests against the iterator protector
// registry and reports which protectors they invalidate.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	protector "github.com/dop251/goja_protector"
)

var log = commonlog.GetLogger("protector-check")

func newRootCommand() *cobra.Command {
	var verbose int

	rootCmd := &cobra.Command{
		Use:           "protector-check",
		Short:         "Run scripts against the iterator protector registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbose, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newRunCommand())
	return rootCmd
}

func newRunCommand() *cobra.Command {
	r := &runner{}
	var (
		timelimit  int
		cpuprofile string
		watch      bool
	)

	runCmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Run one or more scripts, \"-\" reads from stdin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.snapshotPath != "" && len(args) > 1 {
				return errors.New("--snapshot needs a single script")
			}
			if watch {
				for _, a := range args {
					if a == "-" {
						return errors.New("--watch cannot read from stdin")
					}
				}
			}
			r.out = cmd.OutOrStdout()
			r.timelimit = time.Duration(timelimit) * time.Second
			if r.profilePath != "" {
				r.prof = protector.NewInvalidationProfile()
			}

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}

			if watch {
				return r.watch(cmd.Context(), args)
			}
			return r.runAll(args)
		},
	}

	flags := runCmd.Flags()
	flags.BoolVar(&r.allowNatives, "allow-natives-syntax", false, "enable %Name() natives syntax")
	flags.BoolVar(&r.trace, "trace-protector-invalidation", false, "log every protector invalidation")
	flags.StringVar(&r.traceFilter, "trace-filter", "", "only trace protectors matching this regexp")
	flags.StringVar(&r.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&r.snapshotPath, "snapshot", "", "write the final protector states to this file")
	flags.StringVar(&r.restorePath, "restore", "", "apply a protector snapshot before running")
	flags.StringVar(&r.profilePath, "profile", "", "write a pprof profile of invalidation sites to this file")
	flags.BoolVar(&r.printProtectors, "print-protectors", false, "print protector states after each script")
	flags.IntVar(&timelimit, "timelimit", 0, "max time to run each script (in seconds)")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to file")
	flags.BoolVar(&watch, "watch", false, "re-run the scripts when they change")

	return runCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(64)
	}
}
