package data

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Cache 本地缓存目录，远程压缩包只下载并解压一次
type Cache struct {
	dir     string
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewCache 创建缓存
func NewCache(dir string, fetcher *Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Dir 缓存目录
func (c *Cache) Dir() string {
	return c.dir
}

// ArchivePaths 返回压缩包路径及解压后的文件路径 (压缩包路径去掉扩展名)
func (c *Cache) ArchivePaths(name string) (archive, extracted string) {
	archive = filepath.Join(c.dir, name)
	extracted = strings.TrimSuffix(archive, filepath.Ext(archive))
	return archive, extracted
}

// FetchArchive 获取压缩包中的文件:
// 已解压则直接复用; 压缩包存在则只解压; 否则下载后解压。
func (c *Cache) FetchArchive(ctx context.Context, url, name string) (string, error) {
	archive, extracted := c.ArchivePaths(name)

	ok, err := exists(extracted)
	if err != nil {
		return "", err
	}
	if ok {
		c.logger.DebugContext(ctx, "cache hit", slog.String("path", extracted))
		return extracted, nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	ok, err = exists(archive)
	if err != nil {
		return "", err
	}
	if !ok {
		if c.fetcher == nil {
			return "", fmt.Errorf("archive %s not cached and no fetcher configured", name)
		}
		if err := c.fetcher.Download(ctx, url, archive); err != nil {
			return "", err
		}
	}

	if err := c.extractZip(archive, c.dir); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", archive, err)
	}
	if ok, err := exists(extracted); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("archive %s does not contain %s", name, filepath.Base(extracted))
	}

	c.logger.InfoContext(ctx, "archive extracted", slog.String("path", extracted))
	return extracted, nil
}

// extractZip 解压到 dest，每个文件先写临时文件再重命名
func (c *Cache) extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		path := filepath.Join(root, f.Name)
		if path != root && !strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		ok, err := exists(path)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := extractFile(f, path); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, rc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// exists 判断文件是否存在，不存在以外的错误原样返回
func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}
