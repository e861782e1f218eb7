// Package config 配置加载: 默认值 → YAML 文件 → TSPREP_ 环境变量 → 校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/dataset"
	"github.com/opsxjacky/forecast-datasets/internal/logging"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// EnvPrefix 环境变量前缀，键名由字段名拆词得到，如 TSPREP_GAS_USAGE_PERC
const EnvPrefix = "TSPREP"

// dayLayout 日期配置项格式
const dayLayout = "2006-01-02"

// Config 配置文件结构
type Config struct {
	Cache   CacheSection   `yaml:"cache"`
	Sources SourcesSection `yaml:"sources"`
	Gas     GasSection     `yaml:"gas"`
	Output  OutputSection  `yaml:"output"`
	Logging LoggingSection `yaml:"logging"`
}

// CacheSection 缓存配置
type CacheSection struct {
	Dir string `yaml:"dir" split_words:"true" validate:"required"`
}

// SourcesSection 数据源配置
type SourcesSection struct {
	Met   MetSourceSection   `yaml:"met"`
	Solar SolarSourceSection `yaml:"solar"`
	Gas   GasSourceSection   `yaml:"gas"`
}

// MetSourceSection 气象数据源
type MetSourceSection struct {
	URL         string `yaml:"url" split_words:"true" validate:"required,url"`
	ArchiveName string `yaml:"archive_name" split_words:"true" validate:"required"`
	Delimiter   string `yaml:"delimiter" split_words:"true" validate:"len=1"`
	DateColumn  string `yaml:"date_column" split_words:"true" validate:"required"`
	DateFormat  string `yaml:"date_format" split_words:"true" validate:"required"`
	Start       int    `yaml:"start" split_words:"true" validate:"gte=0"`
	Step        int    `yaml:"step" split_words:"true" validate:"gte=1"`
}

// SolarSourceSection 光伏数据源
type SolarSourceSection struct {
	URL       string `yaml:"url" split_words:"true" validate:"required,url"`
	Delimiter string `yaml:"delimiter" split_words:"true" validate:"len=1"`
	FirstDay  string `yaml:"first_day" split_words:"true" validate:"required"`
	LastDay   string `yaml:"last_day" split_words:"true" validate:"required"`
	Window    int    `yaml:"window" split_words:"true" validate:"gte=1"`
}

// GasSourceSection 天然气价格数据源
type GasSourceSection struct {
	NewPath   string `yaml:"new_path" split_words:"true" validate:"required"`
	OldPath   string `yaml:"old_path" split_words:"true" validate:"required"`
	Delimiter string `yaml:"delimiter" split_words:"true" validate:"len=1"`
}

// GasSection 天然气价格划分参数
type GasSection struct {
	SplitPerc []float64 `yaml:"split_perc" split_words:"true" validate:"len=2,dive,gte=0,lte=1"`
	UsagePerc float64   `yaml:"usage_perc" split_words:"true" validate:"gt=0,lte=1"`
	Version   string    `yaml:"version" split_words:"true"`
	TestDays  *int      `yaml:"test_days" split_words:"true" validate:"omitempty,gte=0"`
}

// OutputSection 输出配置
type OutputSection struct {
	Path    string `yaml:"path" split_words:"true"`
	Summary bool   `yaml:"summary" split_words:"true"`
}

// LoggingSection 日志配置
type LoggingSection struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=stdout stderr file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// Default 返回默认配置
func Default() *Config {
	sources := dataset.DefaultSources()
	log := logging.DefaultOptions()

	return &Config{
		Cache: CacheSection{Dir: "data/cache"},
		Sources: SourcesSection{
			Met: MetSourceSection{
				URL:         sources.Met.URL,
				ArchiveName: sources.Met.Archive,
				Delimiter:   string(sources.Met.CSV.Delimiter),
				DateColumn:  sources.Met.CSV.DateColumn,
				DateFormat:  sources.Met.CSV.DateFormat,
				Start:       sources.Met.Start,
				Step:        sources.Met.Step,
			},
			Solar: SolarSourceSection{
				URL:       sources.Solar.URL,
				Delimiter: string(sources.Solar.CSV.Delimiter),
				FirstDay:  sources.Solar.FirstDay.Format(dayLayout),
				LastDay:   sources.Solar.LastDay.Format(dayLayout),
				Window:    sources.Solar.Window,
			},
			Gas: GasSourceSection{
				NewPath:   sources.Gas.NewPath,
				OldPath:   sources.Gas.OldPath,
				Delimiter: string(sources.Gas.CSV.Delimiter),
			},
		},
		Gas: GasSection{
			SplitPerc: []float64{0.8, 0.2},
			UsagePerc: 1,
			Version:   dataset.GasVersionNew,
		},
		Output: OutputSection{
			Path:    "output",
			Summary: true,
		},
		Logging: LoggingSection{
			Level:  log.Level,
			Format: log.Format,
			Output: log.Output,
		},
	}
}

// LoadConfig 加载配置: path 为空时只使用默认值与环境变量
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// 环境变量优先于配置文件
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	for name, d := range map[string]string{
		"sources.met.delimiter":   c.Sources.Met.Delimiter,
		"sources.solar.delimiter": c.Sources.Solar.Delimiter,
		"sources.gas.delimiter":   c.Sources.Gas.Delimiter,
	} {
		if d != "," && d != ";" {
			return fmt.Errorf("%s must be \",\" or \";\", got %q", name, d)
		}
	}

	if _, err := c.solarDays(); err != nil {
		return err
	}
	if _, err := data.DateLayout(c.Sources.Met.DateFormat); err != nil {
		return fmt.Errorf("sources.met.date_format: %w", err)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "file", "both":
		if c.Logging.FilePath == "" {
			return fmt.Errorf("logging.file_path is required for output %q", c.Logging.Output)
		}
	}
	return nil
}

func (c *Config) solarDays() ([2]time.Time, error) {
	first, err := time.Parse(dayLayout, c.Sources.Solar.FirstDay)
	if err != nil {
		return [2]time.Time{}, fmt.Errorf("invalid sources.solar.first_day: %w", err)
	}
	last, err := time.Parse(dayLayout, c.Sources.Solar.LastDay)
	if err != nil {
		return [2]time.Time{}, fmt.Errorf("invalid sources.solar.last_day: %w", err)
	}
	if last.Before(first) {
		return [2]time.Time{}, fmt.Errorf("sources.solar.last_day %s is before first_day %s", c.Sources.Solar.LastDay, c.Sources.Solar.FirstDay)
	}
	return [2]time.Time{first, last}, nil
}

// ToSources 转换为数据源配置
func (c *Config) ToSources() (dataset.Sources, error) {
	days, err := c.solarDays()
	if err != nil {
		return dataset.Sources{}, err
	}

	sources := dataset.DefaultSources()

	met := c.Sources.Met
	sources.Met.URL = met.URL
	sources.Met.Archive = met.ArchiveName
	sources.Met.CSV = data.CSVOptions{
		Delimiter:  delimiter(met.Delimiter),
		DateColumn: met.DateColumn,
		DateFormat: met.DateFormat,
	}
	sources.Met.Start = met.Start
	sources.Met.Step = met.Step

	solar := c.Sources.Solar
	sources.Solar.URL = solar.URL
	sources.Solar.CSV.Delimiter = delimiter(solar.Delimiter)
	sources.Solar.FirstDay = days[0]
	sources.Solar.LastDay = days[1]
	sources.Solar.Window = solar.Window

	gas := c.Sources.Gas
	sources.Gas.NewPath = gas.NewPath
	sources.Gas.OldPath = gas.OldPath
	sources.Gas.CSV.Delimiter = delimiter(gas.Delimiter)

	return sources, nil
}

// ToGasParams 转换为天然气价格划分参数
func (c *Config) ToGasParams() (types.GasParams, error) {
	if len(c.Gas.SplitPerc) != 2 {
		return types.GasParams{}, fmt.Errorf("gas.split_perc must have 2 values, got %d", len(c.Gas.SplitPerc))
	}
	params := types.GasParams{
		SplitPerc: [2]float64{c.Gas.SplitPerc[0], c.Gas.SplitPerc[1]},
		UsagePerc: c.Gas.UsagePerc,
		Version:   c.Gas.Version,
	}
	if c.Gas.TestDays != nil {
		days := *c.Gas.TestDays
		params.TestDays = &days
	}
	return params, nil
}

// ToLoggingOptions 转换为日志选项
func (c *Config) ToLoggingOptions() logging.Options {
	return logging.Options{
		Level:    c.Logging.Level,
		Format:   c.Logging.Format,
		Output:   c.Logging.Output,
		FilePath: c.Logging.FilePath,
	}
}

// GetCacheDir 获取缓存目录
func (c *Config) GetCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return "data/cache"
}

// GetOutputPath 获取输出路径
func (c *Config) GetOutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	return "output"
}

func delimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return ','
}
