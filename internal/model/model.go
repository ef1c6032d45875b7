package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 按模型名迁移表结构
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "KV":
		return db.AutoMigrate(KV{})
	}
	return nil
}

// AutoMigrateAll 迁移全部表结构
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range []string{"KV"} {
		if err := AutoMigrate(db, key); err != nil {
			return err
		}
	}
	return nil
}
