// Package dataset 气象、光伏与天然气价格数据集的加载器
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/pipeline"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// Sources 各数据集的数据源配置
type Sources struct {
	Met   MetSource
	Solar SolarSource
	Gas   GasSource
}

// DefaultSources 默认数据源
func DefaultSources() Sources {
	return Sources{
		Met:   DefaultMetSource(),
		Solar: DefaultSolarSource(),
		Gas:   DefaultGasSource(),
	}
}

// Options 加载器选项
type Options struct {
	CacheDir   string       // 远程压缩包缓存目录
	HTTPClient *http.Client // 默认 http.DefaultClient
	Progress   io.Writer    // 下载进度输出，nil 表示不显示
	Output     io.Writer    // 诊断输出，默认 stdout
	Logger     *slog.Logger
}

// Loader 数据集加载器
type Loader struct {
	sources Sources
	fetcher *data.Fetcher
	cache   *data.Cache
	out     io.Writer
	logger  *slog.Logger
}

// NewLoader 创建加载器
func NewLoader(sources Sources, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	fetcher := data.NewFetcher(opts.HTTPClient, opts.Progress, logger)
	return &Loader{
		sources: sources,
		fetcher: fetcher,
		cache:   data.NewCache(opts.CacheDir, fetcher, logger),
		out:     out,
		logger:  logger,
	}
}

// Pipeline 构建指定数据集的流水线，gas 以外的数据集忽略 params
func (l *Loader) Pipeline(kind types.DatasetKind, params types.GasParams) (*pipeline.Pipeline, error) {
	switch kind {
	case types.DatasetMeteorological:
		return l.MetPipeline(), nil
	case types.DatasetSolar:
		return l.SolarPipeline()
	case types.DatasetGas:
		return l.GasPipeline(params)
	default:
		return nil, fmt.Errorf("unknown dataset %q", kind)
	}
}

// Meteorological 加载气象数据集，返回完整的派生特征表
func (l *Loader) Meteorological(ctx context.Context) (*types.Table, error) {
	result, err := l.MetPipeline().Run(ctx)
	if err != nil {
		return nil, err
	}
	return result.Table, nil
}

// Solar 加载光伏发电数据集并按年划分，总行数输出到诊断输出
func (l *Loader) Solar(ctx context.Context) (types.Split, error) {
	p, err := l.SolarPipeline()
	if err != nil {
		return types.Split{}, err
	}
	return runSplit(ctx, p)
}

// Gas 加载天然气价格数据集并按比例划分
func (l *Loader) Gas(ctx context.Context, params types.GasParams) (types.Split, error) {
	p, err := l.GasPipeline(params)
	if err != nil {
		return types.Split{}, err
	}
	return runSplit(ctx, p)
}

func runSplit(ctx context.Context, p *pipeline.Pipeline) (types.Split, error) {
	result, err := p.Run(ctx)
	if err != nil {
		return types.Split{}, err
	}
	return *result.Split, nil
}
