package aws_s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/haierkeys/cloudnav-sync-service/pkg/fileurl"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	tmtypes "github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

type Config struct {
	// Endpoint 非空时使用自定义地址（MinIO、R2 等 S3 兼容服务）
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

type S3 struct {
	S3Client        *s3.Client
	TransferManager *transfermanager.Client
	Config          *Config
}

// NewClient 创建 S3 存储实例
func NewClient(conf *Config) (*S3, error) {
	region := conf.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.AccessKeySecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		S3Client:        client,
		TransferManager: transfermanager.New(client),
		Config:          conf,
	}, nil
}

func (p *S3) fullKey(fileKey string) string {
	if p.Config.CustomPath == "" {
		return fileKey
	}
	return fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/") + fileKey
}

// Check 确认存储桶可访问
func (p *S3) Check(ctx context.Context) error {
	_, err := p.S3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.Config.BucketName),
	})
	return errors.Wrap(err, "aws_s3")
}

func (p *S3) SendContent(ctx context.Context, fileKey string, content []byte) (string, error) {
	fileKey = p.fullKey(fileKey)

	_, err := p.TransferManager.UploadObject(ctx, &transfermanager.UploadObjectInput{
		Bucket:            aws.String(p.Config.BucketName),
		Key:               aws.String(fileKey),
		Body:              bytes.NewReader(content),
		ContentType:       aws.String("application/json"),
		ChecksumAlgorithm: tmtypes.ChecksumAlgorithmSha256,
	})
	if err != nil {
		return "", errors.Wrap(err, "aws_s3")
	}
	return fileKey, nil
}

// ReadContent 读取对象内容，NoSuchKey 转换为 fs.ErrNotExist
func (p *S3) ReadContent(ctx context.Context, fileKey string) ([]byte, error) {
	out, err := p.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(p.fullKey(fileKey)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("aws_s3: %s: %w", fileKey, fs.ErrNotExist)
		}
		return nil, errors.Wrap(err, "aws_s3")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}
	return data, nil
}

func (p *S3) Delete(ctx context.Context, fileKey string) error {
	_, err := p.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(p.fullKey(fileKey)),
	})
	return errors.Wrap(err, "aws_s3")
}
