package data

import (
	"context"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// DataLoader 数据源接口
type DataLoader interface {
	// Load 获取原始数据并解析为表
	Load(ctx context.Context) (*types.Table, error)

	// SourceType 数据源类型 (file, http, archive)
	SourceType() string

	// Location 数据位置 (路径或 URL)
	Location() string
}
