package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subsrename/internal"
	"subsrename/internal/config"
	"subsrename/internal/logging"
	"subsrename/internal/naming"
	"subsrename/internal/pipeline"
	"subsrename/internal/storage"
	"subsrename/internal/watch"
)

var version = "dev"

type app struct {
	cfg     config.Config
	log     *zap.Logger
	verbose bool
}

func main() {
	must(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "subsrename",
		Short:         "Rename proxy subscription nodes into a uniform labelling scheme",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat, a.verbose)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.runCmd(), a.detectCmd(), a.watchCmd(), versionCmd())
	return root
}

type runFlags struct {
	input, output, prefix, report string
	seed                          uint64
	noHTML                        bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "input directory (INPUT_DIR)")
	cmd.Flags().StringVar(&f.output, "output", "", "output directory (OUTPUT_DIR)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "output file name prefix (OUTPUT_PREFIX)")
	cmd.Flags().StringVar(&f.report, "report", "", "write an xlsx rename report to this path (REPORT_PATH)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "marker pool seed, 0 for random (EMOJI_SEED)")
	cmd.Flags().BoolVar(&f.noHTML, "no-html", false, "do not extract nodes from html pages")
}

func (f *runFlags) apply(cfg *config.Config) error {
	if strings.TrimSpace(f.input) != "" {
		cfg.InputDir = f.input
	}
	if strings.TrimSpace(f.output) != "" {
		cfg.OutputDir = f.output
	}
	if f.prefix != "" {
		cfg.OutputPrefix = f.prefix
	}
	if f.report != "" {
		cfg.ReportPath = f.report
	}
	if f.seed != 0 {
		cfg.EmojiSeed = f.seed
	}
	if f.noHTML {
		cfg.HTMLInput = false
	}
	return cfg.Validate()
}

func (a *app) runCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename every node file of the input directory once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.apply(&a.cfg); err != nil {
				return err
			}
			journal, err := storage.OpenJournal()
			if err != nil {
				return err
			}
			defer journal.Close()

			svc := pipeline.NewService(a.cfg, a.log, journal)
			res, err := svc.Run(cmd.Context(), naming.NewEmojiPool(a.cfg.EmojiSeed))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run done files=%d written=%d skipped=%d renamed=%d dropped=%d\n",
				res.Seen, res.Written, res.Skipped, res.Renamed, res.Dropped)
			for _, out := range res.Outputs {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	var noHTML bool
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Show how a file is classified and which nodes it holds, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noHTML {
				a.cfg.HTMLInput = false
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			det, nodes, failures := pipeline.NewService(a.cfg, a.log, nil).Detect(content)
			printDetect(cmd.OutOrStdout(), args[0], det, nodes, failures)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noHTML, "no-html", false, "do not extract nodes from html pages")
	return cmd
}

func printDetect(w io.Writer, path string, det pipeline.DetectResult, nodes []internal.Node, failures []error) {
	fmt.Fprintf(w, "%s: shape=%s reason=%s nodes=%d dropped=%d\n", path, det.Shape, det.Reason, len(nodes), len(failures)+det.Skipped)
	for _, n := range nodes {
		fmt.Fprintf(w, "  %-10s %-30s %s %-2s %s\n", n.Type, n.Server, n.Flag, n.Region, n.Label)
	}
	for _, err := range failures {
		fmt.Fprintf(w, "  dropped: %v\n", err)
	}
}

func (a *app) watchCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rerun whenever the input directory changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.apply(&a.cfg); err != nil {
				return err
			}
			journal, err := storage.OpenJournal()
			if err != nil {
				return err
			}
			defer journal.Close()

			svc := pipeline.NewService(a.cfg, a.log, journal)
			run := func(ctx context.Context) error {
				// Each pass is its own run, so it gets a fresh marker pool.
				_, err := svc.Run(ctx, naming.NewEmojiPool(a.cfg.EmojiSeed))
				return err
			}
			w := watch.NewService(watch.Options{
				InputDir:  a.cfg.InputDir,
				OutputDir: a.cfg.OutputDir,
				Debounce:  time.Duration(a.cfg.WatchDebounceMs) * time.Millisecond,
				IsOutput:  a.cfg.IsOutputName,
			}, run, a.log)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return w.Run(ctx)
		},
	}
	flags.register(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
