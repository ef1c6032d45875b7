package webdav

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/haierkeys/cloudnav-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	CustomPath string `yaml:"custom-path"`
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// NewClient 创建一个新的 WebDAV 客户端实例，不做连接检查
func NewClient(conf *Config) (*WebDAV, error) {
	if strings.TrimSpace(conf.Endpoint) == "" {
		return nil, fmt.Errorf("webdav: endpoint is required")
	}
	c := gowebdav.NewClient(fileurl.PathSuffixCheckAdd(conf.Endpoint, "/"), conf.User, conf.Password)
	return &WebDAV{Client: c, Config: conf}, nil
}

func (w *WebDAV) fullKey(fileKey string) string {
	if w.Config.CustomPath == "" {
		return fileKey
	}
	return fileurl.PathSuffixCheckAdd(w.Config.CustomPath, "/") + fileKey
}

// Check 对根目录发送 PROPFIND (Depth: 0)
func (w *WebDAV) Check(ctx context.Context) error {
	if _, err := w.Client.Stat("/"); err != nil {
		return errors.Wrap(err, "webdav")
	}
	return nil
}

// SendContent 将内容写入 WebDAV 服务器
func (w *WebDAV) SendContent(ctx context.Context, fileKey string, content []byte) (string, error) {
	fileKey = w.fullKey(fileKey)

	if w.Config.CustomPath != "" {
		if err := w.Client.MkdirAll(w.Config.CustomPath, 0o755); err != nil {
			return "", errors.Wrap(err, "webdav")
		}
	}
	if err := w.Client.Write(fileKey, content, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return fileKey, nil
}

// ReadContent 读取文件内容，404 转换为 fs.ErrNotExist
func (w *WebDAV) ReadContent(ctx context.Context, fileKey string) ([]byte, error) {
	data, err := w.Client.Read(w.fullKey(fileKey))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("webdav: %s: %w", fileKey, fs.ErrNotExist)
		}
		return nil, errors.Wrap(err, "webdav")
	}
	return data, nil
}

func (w *WebDAV) Delete(ctx context.Context, fileKey string) error {
	return w.Client.Remove(w.fullKey(fileKey))
}

// StatusCode 提取 WebDAV 服务端返回的 HTTP 状态码
func StatusCode(err error) (int, bool) {
	var se gowebdav.StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
