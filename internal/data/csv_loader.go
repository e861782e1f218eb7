package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// CSVOptions CSV 解析选项，分隔符与日期格式必须显式给出
type CSVOptions struct {
	Delimiter  rune           // 字段分隔符 ',' 或 ';'
	DateColumn string         // 日期列，解析后作为时间索引 (可选)
	DateFormat string         // strptime 格式，如 "%d.%m.%Y %H:%M:%S"
	Location   *time.Location // 日期无时区时使用的时区，默认 UTC
	Columns    []string       // 只保留这些列 (可选)
	Drop       []string       // 删除这些列 (可选)
}

// nanValues 视为缺失值的字符串
var nanValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// ReadTable 读取 CSV 为数值表
// 日期列之外的列必须为数值，缺失值记为 NaN
func ReadTable(r io.Reader, name string, opts CSVOptions) (*types.Table, error) {
	if opts.Delimiter == 0 {
		return nil, fmt.Errorf("csv delimiter must be set")
	}
	if opts.DateColumn != "" && opts.DateFormat == "" {
		return nil, fmt.Errorf("date column %q requires a date format", opts.DateColumn)
	}

	loadOpts := []dataframe.LoadOption{
		dataframe.WithDelimiter(opts.Delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues(nanValues),
	}
	if opts.DateColumn != "" {
		loadOpts = append(loadOpts, dataframe.WithTypes(map[string]series.Type{
			opts.DateColumn: series.String,
		}))
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	header, hasRows, err := peekHeader(raw, opts.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if !hasRows {
		return emptyTable(name, header, opts)
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw), loadOpts...)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", df.Err)
	}

	df, err = project(df, opts)
	if err != nil {
		return nil, err
	}

	t := types.NewTable(name, df.Nrow())
	for _, col := range df.Names() {
		s := df.Col(col)
		if col == opts.DateColumn {
			times, err := ParseDates(s.Records(), opts.DateFormat, opts.Location)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			t.Times = times
			continue
		}
		if s.Type() == series.String {
			return nil, fmt.Errorf("column %q is not numeric", col)
		}
		if err := t.AddColumn(col, s.Float()); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// peekHeader 读取表头并判断是否有数据行
func peekHeader(raw []byte, delimiter rune) ([]string, bool, error) {
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, false, err
	}
	_, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return header, false, nil
	}
	return header, true, nil
}

// emptyTable 只有表头时返回零行表，列投影规则与有数据时一致
func emptyTable(name string, header []string, opts CSVOptions) (*types.Table, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	if err := checkColumns(present, opts); err != nil {
		return nil, err
	}

	cols := header
	if len(opts.Columns) > 0 {
		cols = opts.Columns
	}
	t := types.NewTable(name, 0)
	if opts.DateColumn != "" {
		t.Times = []time.Time{}
	}
	for _, col := range cols {
		if col == opts.DateColumn || contains(opts.Drop, col) {
			continue
		}
		if err := t.AddColumn(col, []float64{}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// checkColumns 检查选项引用的列都存在
func checkColumns(present map[string]bool, opts CSVOptions) error {
	required := append([]string{}, opts.Columns...)
	required = append(required, opts.Drop...)
	if opts.DateColumn != "" {
		required = append(required, opts.DateColumn)
	}
	for _, c := range required {
		if !present[c] {
			return fmt.Errorf("%q: %w", c, types.ErrColumnNotFound)
		}
	}
	return nil
}

// project 按选项选择/删除列，列不存在时报错
func project(df dataframe.DataFrame, opts CSVOptions) (dataframe.DataFrame, error) {
	present := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		present[n] = true
	}
	if err := checkColumns(present, opts); err != nil {
		return df, err
	}

	if len(opts.Columns) > 0 {
		keep := append([]string{}, opts.Columns...)
		if opts.DateColumn != "" && !contains(keep, opts.DateColumn) {
			keep = append(keep, opts.DateColumn)
		}
		df = df.Select(keep)
	}
	if len(opts.Drop) > 0 {
		df = df.Drop(opts.Drop)
	}
	if df.Err != nil {
		return df, fmt.Errorf("failed to project columns: %w", df.Err)
	}
	return df, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CSVLoader CSV 数据加载器
type CSVLoader struct {
	name       string
	sourceType string
	location   string
	opts       CSVOptions
	open       func(ctx context.Context) (io.ReadCloser, error)
}

// NewFileLoader 读取本地 CSV 文件
func NewFileLoader(name, path string, opts CSVOptions) *CSVLoader {
	return &CSVLoader{
		name:       name,
		sourceType: "file",
		location:   path,
		opts:       opts,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			file, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open file %s: %w", path, err)
			}
			return file, nil
		},
	}
}

// NewHTTPLoader 读取远程 CSV (不缓存)
func NewHTTPLoader(name, url string, fetcher *Fetcher, opts CSVOptions) *CSVLoader {
	return &CSVLoader{
		name:       name,
		sourceType: "http",
		location:   url,
		opts:       opts,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return fetcher.Open(ctx, url)
		},
	}
}

// NewArchiveLoader 读取远程 zip 压缩包中的 CSV，压缩包缓存在 cache 目录
func NewArchiveLoader(name, url, archiveName string, cache *Cache, opts CSVOptions) *CSVLoader {
	return &CSVLoader{
		name:       name,
		sourceType: "archive",
		location:   url,
		opts:       opts,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			path, err := cache.FetchArchive(ctx, url, archiveName)
			if err != nil {
				return nil, err
			}
			file, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open file %s: %w", path, err)
			}
			return file, nil
		},
	}
}

// SourceType 返回数据源类型
func (l *CSVLoader) SourceType() string {
	return l.sourceType
}

// Location 返回数据位置
func (l *CSVLoader) Location() string {
	return l.location
}

// Load 获取并解析 CSV
func (l *CSVLoader) Load(ctx context.Context) (*types.Table, error) {
	rc, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := ReadTable(rc, l.name, l.opts)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", l.sourceType, l.location, err)
	}
	return t, nil
}
