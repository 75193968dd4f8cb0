// 文件: pkg/scenario/mysql_repo.go
// 场景仓库 (GORM + MySQL 实现)

package scenario

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// OpenMySQL 打开 MySQL 连接
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

// MySQLRepo 场景仓库
type MySQLRepo struct {
	db *gorm.DB
}

// NewMySQLRepo 创建仓库
func NewMySQLRepo(db *gorm.DB) *MySQLRepo {
	return &MySQLRepo{db: db}
}

// Migrate 建表
func (r *MySQLRepo) Migrate() error {
	return r.db.AutoMigrate(&Scenario{})
}

// Get 按名称查询
func (r *MySQLRepo) Get(ctx context.Context, name string) (*Scenario, error) {
	var s Scenario
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save 按名称 upsert
func (r *MySQLRepo) Save(ctx context.Context, s *Scenario) error {
	if err := s.Params().Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"s0", "k", "t", "sigma", "r", "steps", "trials", "updated_at"}),
		}).
		Create(s).Error
}

// List 全部场景，按名称排序
func (r *MySQLRepo) List(ctx context.Context) ([]Scenario, error) {
	var out []Scenario
	err := r.db.WithContext(ctx).
		Order("name").
		Find(&out).Error
	return out, err
}
