package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iconresizer/config"
	"iconresizer/contracts"
	"iconresizer/converter"
	"iconresizer/files_manager"
	"iconresizer/logging"
	"iconresizer/pdf_writer"
	"iconresizer/watcher"
)

var version = "dev"

type InputFlags = contracts.InputFlags

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "[ERROR]:", ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, "[ERROR]:", err)
		os.Exit(1)
	}
}

// exitCode distinguishes the pipeline error kinds for scripts.
func exitCode(err error) int {
	switch contracts.KindOf(err) {
	case contracts.KindUnsupportedFormat:
		return 2
	case contracts.KindDecode:
		return 3
	case contracts.KindEncode:
		return 4
	}
	return 1
}

func newRootCommand() *cobra.Command {
	args := &InputFlags{}

	root := &cobra.Command{
		Use:           "iconresizer",
		Short:         "Turn one PNG, TIFF or SVG into transparent square icons",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&args.OutputDir, "output", "o", ".", "Output directory for resized images")
	pf.StringVarP(&args.ConfigPath, "config", "c", "", "YAML configuration file")
	pf.IntSliceVarP(&args.Sizes, "sizes", "s", []int{64, 32, 16}, "Square edge lengths, in output order")
	pf.IntVarP(&args.Workers, "workers", "w", 1, "Sizes processed in parallel")
	pf.BoolVar(&args.IsolateFailures, "isolate", false, "Keep successful sizes when another size fails")
	pf.StringVar(&args.Rasterizer, "rasterizer", converter.DefaultRasterizer, "SVG backend")
	pf.BoolVar(&args.PreviewPDF, "preview-pdf", false, "Also write preview.pdf with every variant")
	pf.BoolVar(&args.WriteOriginal, "write-original", false, "Also write the decoded source as original.png")

	root.AddCommand(newConvertCommand(args))
	root.AddCommand(newWatchCommand(args))
	root.AddCommand(newVersionCommand())
	return root
}

func newConvertCommand(args *InputFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <image>",
		Short: "Convert one source image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.InputPath = positional[0]
			cfg, logger, err := setup(cmd, *args)
			if err != nil {
				return cliError{code: 1, err: err}
			}
			defer logger.Sync()

			out, err := convertFile(cmd.Context(), cfg, logger, args.InputPath)
			if err != nil {
				return cliError{code: exitCode(err), err: err}
			}
			for _, path := range out.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "Converted to %s\n", path)
			}
			return nil
		},
	}
}

func newWatchCommand(args *InputFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert every source dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.InputPath = positional[0]
			cfg, logger, err := setup(cmd, *args)
			if err != nil {
				return cliError{code: 1, err: err}
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watcher.New(args.InputPath, func(ctx context.Context, path string) error {
				out, err := convertFile(ctx, cfg, logger, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files written to %s\n", filepath.Base(path), len(out.Entries), out.Path)
				return nil
			}, logger)
			if err != nil {
				return cliError{code: 1, err: err}
			}
			return w.Run(ctx)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func setup(cmd *cobra.Command, args InputFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyFlags(args, func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid options: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func convertFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, path string) (contracts.OutputFolder, error) {
	startTime := time.Now()
	defer func() {
		logger.Debug("total time taken", zap.String("source", path), zap.Duration("took", time.Since(startTime)))
	}()

	if err := files_manager.CheckOutputDir(cfg.OutputDir); err != nil {
		return contracts.OutputFolder{}, err
	}

	src, err := files_manager.OpenSource(path)
	if err != nil {
		return contracts.OutputFolder{}, err
	}

	rasterizer, err := converter.NewRasterizer(cfg.Rasterizer)
	if err != nil {
		return contracts.OutputFolder{}, err
	}

	pipeline, err := converter.NewPipeline(cfg.TargetSizes(),
		converter.WithRasterizer(rasterizer),
		converter.WithLogger(logger),
		converter.WithWorkers(cfg.Workers),
		converter.WithIsolatedFailures(cfg.IsolateFailures),
	)
	if err != nil {
		return contracts.OutputFolder{}, err
	}

	result, err := pipeline.Convert(ctx, src)
	if err != nil {
		return contracts.OutputFolder{}, err
	}

	out, err := files_manager.WriteResult(cfg.OutputDir, result, cfg.WriteOriginal)
	if err != nil {
		return out, err
	}

	if cfg.PreviewPDF {
		var buf bytes.Buffer
		if err := pdf_writer.WritePreviewSheet(&buf, src.Name, result); err != nil {
			return out, fmt.Errorf("failed to build preview sheet: %w", err)
		}
		path, err := files_manager.WriteFile(cfg.OutputDir, contracts.PreviewFileName, buf.Bytes())
		if err != nil {
			return out, err
		}
		out.Entries = append(out.Entries, path)
	}

	for _, f := range result.Failures {
		logger.Warn("size skipped", zap.Int("size", int(f.Size)), zap.Error(f.Err))
	}
	return out, nil
}

// run executes the root command with explicit arguments and output, for tests.
func run(argv []string, stdout io.Writer) error {
	root := newRootCommand()
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}
