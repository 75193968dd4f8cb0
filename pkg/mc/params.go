// 文件: pkg/mc/params.go
// 参数集：所有策略共享的经济/合约输入

package mc

import "math"

// Params 是一次定价的全部输入（值类型，创建后不再修改）
type Params struct {
	S0     float64 `json:"s0"`     // 标的现价
	K      float64 `json:"k"`      // 执行价
	T      float64 `json:"t"`      // 到期时间（年）
	Sigma  float64 `json:"sigma"`  // 年化波动率
	R      float64 `json:"r"`      // 无风险利率（连续复利）
	Steps  int     `json:"steps"`  // 每条路径的时间步数 n
	Trials int     `json:"trials"` // 独立试验次数 M
}

// Validate 在任何试验开始前检查参数
//
// sigma = 0 是允许的：路径退化为确定性增长
func (p Params) Validate() error {
	scalars := []struct {
		name string
		v    float64
	}{
		{"s0", p.S0}, {"k", p.K}, {"t", p.T}, {"sigma", p.Sigma}, {"r", p.R},
	}
	for _, s := range scalars {
		if math.IsNaN(s.v) || math.IsInf(s.v, 0) {
			return &ParamError{Name: s.name, Value: s.v, Reason: "must be finite"}
		}
	}

	if p.S0 <= 0 {
		return &ParamError{Name: "s0", Value: p.S0, Reason: "must be > 0"}
	}
	if p.K <= 0 {
		return &ParamError{Name: "k", Value: p.K, Reason: "must be > 0"}
	}
	if p.T <= 0 {
		return &ParamError{Name: "t", Value: p.T, Reason: "must be > 0"}
	}
	if p.Sigma < 0 {
		return &ParamError{Name: "sigma", Value: p.Sigma, Reason: "must be >= 0"}
	}
	if p.Steps < 1 {
		return &ParamError{Name: "steps", Value: float64(p.Steps), Reason: "must be >= 1"}
	}
	if p.Trials < 1 {
		return &ParamError{Name: "trials", Value: float64(p.Trials), Reason: "must be >= 1"}
	}
	return nil
}

// Delta 单步时间增量 T/n
func (p Params) Delta() float64 { return p.T / float64(p.Steps) }

// DriftAdj 对数收益的风险中性漂移 r - sigma²/2
func (p Params) DriftAdj() float64 { return p.R - p.Sigma*p.Sigma/2 }

// Discount 折现因子 e^{-rT}
func (p Params) Discount() float64 { return math.Exp(-p.R * p.T) }

// WithSigma 返回只替换了波动率的副本（敏感性分析用）
func (p Params) WithSigma(sigma float64) Params {
	p.Sigma = sigma
	return p
}

// WithTrials 返回只替换了试验次数的副本
func (p Params) WithTrials(m int) Params {
	p.Trials = m
	return p
}
