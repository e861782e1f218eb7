package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DateLayout 将 strptime 格式 (如 "%d.%m.%Y %H:%M:%S") 转换为 Go 时间布局
func DateLayout(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("empty date format")
	}
	layout, err := strftime.Layout(pattern)
	if err != nil {
		return "", fmt.Errorf("unsupported date format %q: %w", pattern, err)
	}
	return layout, nil
}

// ParseDates 按 strptime 格式解析日期字符串，无时区信息时按 loc 解释
func ParseDates(values []string, pattern string, loc *time.Location) ([]time.Time, error) {
	layout, err := DateLayout(pattern)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	times := make([]time.Time, len(values))
	for i, v := range values {
		t, err := time.ParseInLocation(layout, strings.TrimSpace(v), loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: unable to parse date %q: %w", i, v, err)
		}
		times[i] = t
	}
	return times, nil
}
