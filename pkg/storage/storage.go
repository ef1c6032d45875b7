package storage

import (
	"context"
	"fmt"

	"github.com/haierkeys/cloudnav-sync-service/pkg/storage/aws_s3"
	"github.com/haierkeys/cloudnav-sync-service/pkg/storage/local_fs"
	"github.com/haierkeys/cloudnav-sync-service/pkg/storage/webdav"
)

type Type = string

const S3 Type = "s3"
const LOCAL Type = "localfs"
const WebDAV Type = "webdav"

var StorageTypeMap = map[Type]bool{
	S3:     true,
	LOCAL:  true,
	WebDAV: true,
}

// Config Unified storage configuration
// Config 统一存储配置
type Config struct {
	Type Type `yaml:"type" default:"localfs"`

	CustomPath string `yaml:"custom-path"`

	// S3 兼容存储（AWS / MinIO / R2 通过 endpoint 指定）
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/backup"`
}

// Storager 备份文件的读写接口
// 文件不存在时 ReadContent 返回的错误满足 errors.Is(err, fs.ErrNotExist)
type Storager interface {
	SendContent(ctx context.Context, fileKey string, content []byte) (string, error)
	ReadContent(ctx context.Context, fileKey string) ([]byte, error)
	Delete(ctx context.Context, fileKey string) error
	Check(ctx context.Context) error
}

func NewClient(config *Config) (Storager, error) {
	if config == nil {
		return nil, fmt.Errorf("storage: nil config")
	}

	switch config.Type {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case S3:
		return aws_s3.NewClient(&aws_s3.Config{
			Endpoint:        config.Endpoint,
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		})
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   config.Endpoint,
			User:       config.User,
			Password:   config.Password,
			CustomPath: config.CustomPath,
		})
	}
	return nil, fmt.Errorf("storage: unknown type %q", config.Type)
}

// StatusCode 远端返回的 HTTP 状态码，目前只有 WebDAV 能提供
func StatusCode(err error) (int, bool) {
	return webdav.StatusCode(err)
}
