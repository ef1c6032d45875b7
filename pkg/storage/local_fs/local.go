package local_fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/haierkeys/cloudnav-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/backup"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		return nil, errors.New("local_fs: save path is required")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) getSavePath() string {
	return filepath.Join(p.Config.SavePath, p.Config.CustomPath)
}

func (p *LocalFS) Check(ctx context.Context) error {
	return errors.Wrap(os.MkdirAll(p.getSavePath(), 0o755), "local_fs")
}

// SendContent 原子写入文件，返回保存路径
func (p *LocalFS) SendContent(ctx context.Context, fileKey string, content []byte) (string, error) {
	dst := filepath.Join(p.getSavePath(), filepath.FromSlash(fileKey))
	if err := fileurl.WriteFileAtomic(dst, content, 0o644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return dst, nil
}

// ReadContent 文件不存在时返回的错误满足 os.IsNotExist
func (p *LocalFS) ReadContent(ctx context.Context, fileKey string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.getSavePath(), filepath.FromSlash(fileKey)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "local_fs")
	}
	return data, nil
}

func (p *LocalFS) Delete(ctx context.Context, fileKey string) error {
	dst := filepath.Join(p.getSavePath(), filepath.FromSlash(fileKey))
	if fileurl.IsExist(dst) {
		return os.Remove(dst)
	}
	return nil
}
