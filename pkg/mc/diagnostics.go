// 文件: pkg/mc/diagnostics.go
// 矩诊断：用模拟终值反推漂移和方差，与风险中性理论值对比
// 只用于校验生成器，不影响价格

package mc

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Moment 一个经验矩及其理论目标
type Moment struct {
	Name        string  `json:"name"`
	Empirical   float64 `json:"empirical"`
	Theoretical float64 `json:"theoretical"`
}

// Gap 经验值与理论值之差的绝对值
func (m Moment) Gap() float64 { return math.Abs(m.Empirical - m.Theoretical) }

// Diagnostics 四个年化矩
//
//	Mu1 = mean(log(ST/S0)) / T         -> r - σ²/2
//	Mu2 = mean((ST-S0)/S0) / T         -> r
//	Mu3 = mean(log(ST/S0)²) / T        -> σ²
//	Mu4 = mean(((ST-S0)/S0)²) / T      -> σ²
type Diagnostics struct {
	Mu1 Moment `json:"mu1"`
	Mu2 Moment `json:"mu2"`
	Mu3 Moment `json:"mu3"`
	Mu4 Moment `json:"mu4"`
}

// Moments 按 mu1..mu4 顺序返回
func (d Diagnostics) Moments() []Moment {
	return []Moment{d.Mu1, d.Mu2, d.Mu3, d.Mu4}
}

// Diagnose 由终值样本计算四个矩
func Diagnose(p Params, terminals []float64) (Diagnostics, error) {
	if err := p.Validate(); err != nil {
		return Diagnostics{}, err
	}
	if len(terminals) == 0 {
		return Diagnostics{}, &ParamError{Name: "terminals", Value: 0, Reason: "empty sample"}
	}

	n := len(terminals)
	logRet := make([]float64, n)
	simpleRet := make([]float64, n)
	logSq := make([]float64, n)
	simpleSq := make([]float64, n)

	for i, st := range terminals {
		lr := math.Log(st / p.S0)
		sr := (st - p.S0) / p.S0
		logRet[i], simpleRet[i] = lr, sr
		logSq[i], simpleSq[i] = lr*lr, sr*sr
	}

	variance := p.Sigma * p.Sigma
	return Diagnostics{
		Mu1: Moment{Name: "mu1", Empirical: stat.Mean(logRet, nil) / p.T, Theoretical: p.DriftAdj()},
		Mu2: Moment{Name: "mu2", Empirical: stat.Mean(simpleRet, nil) / p.T, Theoretical: p.R},
		Mu3: Moment{Name: "mu3", Empirical: stat.Mean(logSq, nil) / p.T, Theoretical: variance},
		Mu4: Moment{Name: "mu4", Empirical: stat.Mean(simpleSq, nil) / p.T, Theoretical: variance},
	}, nil
}

// DiagnoseResult 直接对估计结果做诊断
func DiagnoseResult(r *Result) (Diagnostics, error) {
	return Diagnose(r.Params, r.Terminals())
}
