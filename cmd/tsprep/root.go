package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opsxjacky/forecast-datasets/internal/config"
	"github.com/opsxjacky/forecast-datasets/internal/dataset"
	"github.com/opsxjacky/forecast-datasets/internal/logging"
	"github.com/opsxjacky/forecast-datasets/internal/pipeline"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// app 命令运行时状态，在 PersistentPreRunE 中初始化
type app struct {
	configPath string
	cacheDir   string
	outDir     string
	logLevel   string
	progress   bool

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	loader *dataset.Loader
	out    io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tsprep",
		Short:         "Prepare forecasting datasets (meteorological, solar, gas price)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	flags.StringVar(&a.cacheDir, "cache-dir", "", "directory for downloaded archives")
	flags.StringVarP(&a.outDir, "out", "o", "", "output directory for CSV partitions and summaries")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.progress, "progress", true, "show download progress")

	root.AddCommand(
		a.datasetCmd(types.DatasetMeteorological, "Jena climate data with wind vectors and cyclical time features"),
		a.datasetCmd(types.DatasetSolar, "Webberville hourly solar generation split into yearly windows"),
		a.gasCmd(),
		a.allCmd(),
	)
	return root
}

// init 加载配置并应用命令行覆盖
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.cacheDir != "" {
		cfg.Cache.Dir = a.cacheDir
	}
	if a.outDir != "" {
		cfg.Output.Path = a.outDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger, closer, err := logging.New(cfg.ToLoggingOptions())
	if err != nil {
		return err
	}

	sources, err := cfg.ToSources()
	if err != nil {
		closer.Close()
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	a.out = &lockedWriter{w: cmd.OutOrStdout()}

	opts := dataset.Options{
		CacheDir: cfg.GetCacheDir(),
		Output:   a.out,
		Logger:   logger,
	}
	if a.progress {
		opts.Progress = cmd.ErrOrStderr()
	}
	a.loader = dataset.NewLoader(sources, opts)

	runID := logging.NewRunID()
	cmd.SetContext(logging.WithRunID(cmd.Context(), runID))
	logger.DebugContext(cmd.Context(), "configuration loaded", slog.String("config", a.configPath))
	return nil
}

func (a *app) datasetCmd(kind types.DatasetKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.run(cmd.Context(), kind, types.GasParams{})
			if err != nil {
				return err
			}
			p.PrintSummary(a.out)
			return nil
		},
	}
}

func (a *app) gasCmd() *cobra.Command {
	var (
		split    []float64
		usage    float64
		version  string
		testDays int
	)

	cmd := &cobra.Command{
		Use:   string(types.DatasetGas),
		Short: "TTF front-month gas prices split by fractions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := a.gasParams(cmd, split, usage, version, testDays)
			if err != nil {
				return err
			}
			p, err := a.run(cmd.Context(), types.DatasetGas, params)
			if err != nil {
				return err
			}
			p.PrintSummary(a.out)
			return nil
		},
	}
	addGasFlags(cmd, &split, &usage, &version, &testDays)
	return cmd
}

func addGasFlags(cmd *cobra.Command, split *[]float64, usage *float64, version *string, testDays *int) {
	cmd.Flags().Float64SliceVar(split, "split", nil, "train,val fractions (must sum to 1)")
	cmd.Flags().Float64Var(usage, "usage", 1, "fraction of rows to use (ignored with --test-days)")
	cmd.Flags().StringVar(version, "version", dataset.GasVersionNew, "price file version (new or old)")
	cmd.Flags().IntVar(testDays, "test-days", 0, "number of trailing rows reserved for the test partition")
}

// gasParams 以配置为基础，应用显式给出的命令行参数
func (a *app) gasParams(cmd *cobra.Command, split []float64, usage float64, version string, testDays int) (types.GasParams, error) {
	if cmd.Flags().Changed("split") {
		a.cfg.Gas.SplitPerc = split
	}
	if cmd.Flags().Changed("usage") {
		a.cfg.Gas.UsagePerc = usage
	}
	if cmd.Flags().Changed("version") {
		a.cfg.Gas.Version = version
	}
	if cmd.Flags().Changed("test-days") {
		a.cfg.Gas.TestDays = &testDays
	}
	return a.cfg.ToGasParams()
}

func (a *app) allCmd() *cobra.Command {
	var (
		split    []float64
		usage    float64
		version  string
		testDays int
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Prepare every dataset concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := a.gasParams(cmd, split, usage, version, testDays)
			if err != nil {
				return err
			}

			kinds := []types.DatasetKind{types.DatasetMeteorological, types.DatasetSolar, types.DatasetGas}
			pipelines := make([]*pipeline.Pipeline, len(kinds))

			g, ctx := errgroup.WithContext(cmd.Context())
			for i, kind := range kinds {
				i, kind := i, kind
				g.Go(func() error {
					p, err := a.run(ctx, kind, params)
					if err != nil {
						return err
					}
					pipelines[i] = p
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, p := range pipelines {
				p.PrintSummary(a.out)
			}
			return nil
		},
	}
	addGasFlags(cmd, &split, &usage, &version, &testDays)
	return cmd
}

// run 运行数据集流水线并写出 CSV 与摘要
func (a *app) run(ctx context.Context, kind types.DatasetKind, params types.GasParams) (*pipeline.Pipeline, error) {
	p, err := a.loader.Pipeline(kind, params)
	if err != nil {
		return nil, err
	}
	if _, err := p.Run(ctx); err != nil {
		return nil, err
	}

	outDir := a.cfg.GetOutputPath()
	paths, err := p.SaveTables(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", kind, err)
	}
	for _, path := range paths {
		a.logger.InfoContext(ctx, "table written", slog.String("dataset", string(kind)), slog.String("path", path))
	}

	if a.cfg.Output.Summary {
		if err := p.ExportResults(filepath.Join(outDir, string(kind)+"_summary.json")); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// close 关闭日志文件，可重复调用
func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// lockedWriter 并发安全的输出
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
