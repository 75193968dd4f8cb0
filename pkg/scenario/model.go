// 文件: pkg/scenario/model.go
// 定价场景：命名的参数集
//
// 只保存输入参数，不保存模拟结果

package scenario

import (
	"context"
	"errors"
	"time"

	"max.com/mcoption/pkg/mc"
)

// ErrScenarioNotFound 场景不存在
var ErrScenarioNotFound = errors.New("scenario not found")

// Scenario 场景表 mc_scenarios
type Scenario struct {
	ID     uint    `gorm:"primaryKey" json:"-"`
	Name   string  `gorm:"size:64;uniqueIndex;not null" json:"name"`
	S0     float64 `gorm:"column:s0;not null" json:"s0"`
	K      float64 `gorm:"column:k;not null" json:"k"`
	T      float64 `gorm:"column:t;not null" json:"t"`
	Sigma  float64 `gorm:"column:sigma;not null" json:"sigma"`
	R      float64 `gorm:"column:r;not null" json:"r"`
	Steps  int     `gorm:"column:steps;not null" json:"steps"`
	Trials int     `gorm:"column:trials;not null" json:"trials"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名
func (Scenario) TableName() string { return "mc_scenarios" }

// Params 转成参数集
func (s Scenario) Params() mc.Params {
	return mc.Params{S0: s.S0, K: s.K, T: s.T, Sigma: s.Sigma, R: s.R, Steps: s.Steps, Trials: s.Trials}
}

// FromParams 由参数集构造场景
func FromParams(name string, p mc.Params) Scenario {
	return Scenario{
		Name:   name,
		S0:     p.S0,
		K:      p.K,
		T:      p.T,
		Sigma:  p.Sigma,
		R:      p.R,
		Steps:  p.Steps,
		Trials: p.Trials,
	}
}

// Repository 场景仓库
type Repository interface {
	Get(ctx context.Context, name string) (*Scenario, error)
	Save(ctx context.Context, s *Scenario) error
	List(ctx context.Context) ([]Scenario, error)
}

// =============================================================================
// 内置场景
// =============================================================================

// Builtins 随程序发布的场景
func Builtins() []Scenario {
	return []Scenario{
		// 一个月平值看涨，闭式解 ≈ 3.64
		FromParams("atm-1m", mc.Params{S0: 100, K: 100, T: 1.0 / 12, Sigma: 0.3, R: 0.045, Steps: 30, Trials: 20000}),
		FromParams("bs-classic", mc.Params{S0: 100, K: 100, T: 1, Sigma: 0.2, R: 0.05, Steps: 252, Trials: 50000}),
		FromParams("otm-6m", mc.Params{S0: 100, K: 120, T: 0.5, Sigma: 0.25, R: 0.03, Steps: 126, Trials: 50000}),
		FromParams("deterministic", mc.Params{S0: 100, K: 95, T: 1, Sigma: 0, R: 0.05, Steps: 12, Trials: 1000}),
	}
}
