// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/model"
	"github.com/haierkeys/cloudnav-sync-service/pkg/fileurl"
	"github.com/haierkeys/cloudnav-sync-service/pkg/util"
	"github.com/haierkeys/cloudnav-sync-service/pkg/writequeue"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// 存储后端
const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
)

// Config 数据库配置
type Config struct {
	// Type 数据库类型 sqlite|mysql|postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/cloudnav.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机，mysql 为 host:port
	Host string `yaml:"host"`
	// Port postgres 端口
	Port int `yaml:"port" default:"5432"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix" default:"cn_"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// SSLMode postgres sslmode
	SSLMode string `yaml:"ssl-mode" default:"disable"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// kvStore 在 KVRepository 之上提供按修订号的条件写入
type kvStore interface {
	domain.KVRepository

	// getRevision 返回值与修订号，不存在时 ok 为 false
	getRevision(ctx context.Context, key string) (value string, rev int64, ok bool, err error)

	// putIfRevision 仅当当前修订号等于 rev 时写入，exists 为 false 时要求键不存在
	putIfRevision(ctx context.Context, key, value string, rev int64, exists bool) (bool, error)
}

// Dao 数据访问对象，持有存储后端与写队列
type Dao struct {
	db     *gorm.DB
	rdb    *redis.Client
	wq     *writequeue.Manager
	logger *zap.Logger
	store  kvStore
}

// New 使用 SQL 数据库创建 Dao
func New(db *gorm.DB, wq *writequeue.Manager, logger *zap.Logger) *Dao {
	d := &Dao{db: db, wq: wq, logger: logger}
	d.store = &kvRepository{dao: d}
	return d
}

// NewWithRedis 使用 Redis 创建 Dao
func NewWithRedis(rdb *redis.Client, prefix string, wq *writequeue.Manager, logger *zap.Logger) *Dao {
	d := &Dao{rdb: rdb, wq: wq, logger: logger}
	d.store = &redisKVRepository{dao: d, prefix: prefix}
	return d
}

// Logger 获取日志器
func (d *Dao) Logger() *zap.Logger {
	if d.logger == nil {
		return zap.NewNop()
	}
	return d.logger
}

// DB 获取数据库连接，Redis 后端返回 nil
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// KV 获取键值仓储
func (d *Dao) KV() domain.KVRepository {
	return d.store
}

// Backend 当前存储后端
func (d *Dao) Backend() string {
	if d.rdb != nil {
		return BackendRedis
	}
	return BackendDatabase
}

// ExecuteWrite 将写操作放入 key 对应的写队列串行执行
func (d *Dao) ExecuteWrite(ctx context.Context, key string, fn func() error) error {
	if d.wq == nil {
		return fn()
	}
	return d.wq.Execute(ctx, key, fn)
}

// Ping 检查存储连接
func (d *Dao) Ping(ctx context.Context) error {
	if d.rdb != nil {
		return d.rdb.Ping(ctx).Err()
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接
func (d *Dao) Close() error {
	if d.rdb != nil {
		return d.rdb.Close()
	}
	if d.db != nil {
		sqlDB, err := d.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// NewDBEngine 创建数据库连接并按需迁移表结构
func NewDBEngine(c Config, runMode string) (*gorm.DB, error) {
	dialector, err := useDialector(c)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if runMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`KV` 的表名应该是 `cn_kv`
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite 只允许单个写连接
	if c.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(util.DurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(util.DurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	if c.AutoMigrate {
		if err := model.AutoMigrateAll(db); err != nil {
			return nil, errors.Wrap(err, "auto migrate")
		}
	}
	return db, nil
}

func useDialector(c Config) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			c.Host,
			c.UserName,
			c.Password,
			c.Name,
			c.Port,
			c.SSLMode,
		)), nil
	case "sqlite", "":
		if c.Path != "" && c.Path != ":memory:" && !fileurl.IsExist(filepath.Dir(c.Path)) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

// NewRedisClient 按 URL 创建 Redis 客户端并检查连通性
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}
