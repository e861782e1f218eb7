package data

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Fetcher HTTP 下载器
type Fetcher struct {
	client   *http.Client
	progress io.Writer // 进度条输出，nil 表示不显示
	logger   *slog.Logger
}

// NewFetcher 创建下载器
func NewFetcher(client *http.Client, progress io.Writer, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:   client,
		progress: progress,
		logger:   logger,
	}
}

// Open 发起 GET 请求并返回响应体，非 200 状态返回错误
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	f.logger.DebugContext(ctx, "fetching", slog.String("url", url))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// Download 下载到 dst，先写入同目录临时文件再重命名
func (f *Fetcher) Download(ctx context.Context, url, dst string) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var bar *progressbar.ProgressBar
	if f.progress != nil {
		bar = f.newBar(resp.ContentLength, filepath.Base(dst))
		w = io.MultiWriter(tmp, bar)
	}

	start := time.Now()
	n, err := io.Copy(w, resp.Body)
	if bar != nil {
		bar.Finish()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	f.logger.InfoContext(ctx, "downloaded",
		slog.String("url", url),
		slog.String("path", dst),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (f *Fetcher) newBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}
