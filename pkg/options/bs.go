package options

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"max.com/mcoption/pkg/mc"
)

var (
	// 错误信息，针对无效输入
	ErrInvalidInputs = errors.New("invalid inputs")
)

// BlackScholes 欧式期权的闭式参考定价（无分红）
// 只用于和蒙特卡洛估计做对比，不参与模拟本身
type BlackScholes struct{}

// CallPrice 计算欧式看涨期权价格
//
// C = S·N(d1) - K·e^{-rT}·N(d2)
func (BlackScholes) CallPrice(p mc.Params) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}

	// 波动率为 0 时价格是确定的: max(S - K·e^{-rT}, 0)
	if p.Sigma == 0 {
		return math.Max(p.S0-p.K*p.Discount(), 0), nil
	}

	d1, d2 := calcD(p)
	return p.S0*normCDF(d1) - p.K*p.Discount()*normCDF(d2), nil
}

// PutPrice 计算欧式看跌期权价格（用于 put-call parity 校验）
//
// P = K·e^{-rT}·N(-d2) - S·N(-d1)
func (BlackScholes) PutPrice(p mc.Params) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}

	if p.Sigma == 0 {
		return math.Max(p.K*p.Discount()-p.S0, 0), nil
	}

	d1, d2 := calcD(p)
	return p.K*p.Discount()*normCDF(-d2) - p.S0*normCDF(-d1), nil
}

// Vega 价格对波动率的敏感度 S·√T·φ(d1)
// 可用来估算波动率扰动对价格的影响量级
func (BlackScholes) Vega(p mc.Params) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	if p.Sigma == 0 {
		return 0, nil
	}
	d1, _ := calcD(p)
	return p.S0 * math.Sqrt(p.T) * distuv.UnitNormal.Prob(d1), nil
}

// validate 检查输入：只看定价需要的字段，n 和 M 与闭式解无关
func validate(p mc.Params) error {
	if p.S0 <= 0 || p.K <= 0 || p.T <= 0 || p.Sigma < 0 {
		return ErrInvalidInputs
	}
	for _, v := range []float64{p.S0, p.K, p.T, p.Sigma, p.R} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidInputs
		}
	}
	return nil
}

// calcD 计算 d1, d2
// d1 = [ln(S/K) + (r + σ²/2)T] / (σ√T), d2 = d1 - σ√T
func calcD(p mc.Params) (d1, d2 float64) {
	volT := p.Sigma * math.Sqrt(p.T)
	d1 = (math.Log(p.S0/p.K) + (p.R+0.5*p.Sigma*p.Sigma)*p.T) / volT
	return d1, d1 - volT
}

// normCDF 标准正态分布的 CDF
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
