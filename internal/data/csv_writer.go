package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// WriteTableCSV 将表写为 CSV，首列为时间索引 (time) 或行标签 (index)
func WriteTableCSV(w io.Writer, t *types.Table) error {
	cols := make([]series.Series, 0, len(t.Columns())+1)

	if t.HasTimeIndex() {
		ts := make([]string, t.Len())
		for i, v := range t.Times {
			ts[i] = v.Format(time.RFC3339)
		}
		cols = append(cols, series.New(ts, series.String, "time"))
	} else {
		idx := make([]string, t.Len())
		for i, v := range t.Index {
			idx[i] = strconv.Itoa(v)
		}
		cols = append(cols, series.New(idx, series.String, "index"))
	}

	// 浮点数按最短精确表示写出
	for _, name := range t.Columns() {
		values, _ := t.Column(name)
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		cols = append(cols, series.New(out, series.String, name))
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return fmt.Errorf("failed to build frame: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// SaveTableCSV 将表写入文件
func SaveTableCSV(path string, t *types.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteTableCSV(file, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
