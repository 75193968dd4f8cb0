// 文件: pkg/mc/diffusion.go
// 对数正态扩散（离散化几何布朗运动）
//
// S(t+Δ) = S(t) · exp((r - σ²/2)Δ + σ√Δ·Z)
// 对 GBM 来说该离散化在分布上是精确的

package mc

import "math"

// Diffusion 扩散路径生成器
type Diffusion struct{}

func (d *Diffusion) Name() string { return StrategyDiffusion }

// Prepare 预计算每步的漂移项和波动项
func (d *Diffusion) Prepare(p Params) (PathFunc, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	delta := p.Delta()
	driftTerm := p.DriftAdj() * delta
	volTerm := p.Sigma * math.Sqrt(delta)

	if g := math.Exp(driftTerm); math.IsInf(g, 0) || g == 0 {
		return nil, &NumericError{Quantity: "exp(drift·delta)", Value: g, Trial: -1}
	}

	n := p.Steps
	s0 := p.S0

	return func(src Source) Sample {
		return Sample{Terminal: walk(s0, n, func(price float64) float64 {
			return price * math.Exp(driftTerm+volTerm*src.NormFloat64())
		})}
	}, nil
}

// walk 把 step 折叠 n 次，价格作为显式累加值传递
func walk(start float64, n int, step func(float64) float64) float64 {
	price := start
	for i := 0; i < n; i++ {
		price = step(price)
	}
	return price
}
