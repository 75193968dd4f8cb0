// 文件: pkg/mc/binomial.go
// 二叉风险中性随机游走
//
// 每一步只有两种对数收益：log(u) 或 log(d)
//   u = exp(drift·Δ + σ√Δ)
//   d = exp(drift·Δ - σ√Δ)
//   p = (R - d) / (u - d), R = exp(rΔ)

package mc

import "math"

// Binomial 二叉路径生成器
type Binomial struct {
	// RecordDraws 为 true 时保留每条路径的 n 个均匀分布抽样
	RecordDraws bool
}

// Lattice 二叉树推导量
type Lattice struct {
	Delta float64
	U     float64
	D     float64
	R     float64
	P     float64
}

func (b *Binomial) Name() string { return StrategyBinomial }

// NewLattice 推导 u, d, R, p 并检查其有效性
func NewLattice(p Params) (Lattice, error) {
	if err := p.Validate(); err != nil {
		return Lattice{}, err
	}

	delta := p.Delta()
	drift := p.DriftAdj() * delta
	shock := p.Sigma * math.Sqrt(delta)

	l := Lattice{
		Delta: delta,
		U:     math.Exp(drift + shock),
		D:     math.Exp(drift - shock),
		R:     math.Exp(p.R * delta),
	}

	for _, q := range []struct {
		name string
		v    float64
	}{{"u", l.U}, {"d", l.D}, {"R", l.R}} {
		if math.IsInf(q.v, 0) || math.IsNaN(q.v) || q.v == 0 {
			return Lattice{}, &NumericError{Quantity: q.name, Value: q.v, Trial: -1}
		}
	}

	// sigma = 0 时 u == d，p 无定义；每一步的收益都相同，取 p = 0 让所有步都走 u
	if l.U == l.D {
		l.P = 0
		return l, nil
	}

	l.P = (l.R - l.D) / (l.U - l.D)
	if math.IsNaN(l.P) || l.P < 0 || l.P > 1 {
		return Lattice{}, &ParamError{Name: "p", Value: l.P, Reason: "risk-neutral probability outside [0,1]"}
	}
	return l, nil
}

// Prepare 推导参数并返回单路径函数
//
// 抽样 x < p 记 log(d)，x >= p 记 log(u)；
// x == p 归为上涨，避免该步静默贡献 0
func (b *Binomial) Prepare(p Params) (PathFunc, error) {
	l, err := NewLattice(p)
	if err != nil {
		return nil, err
	}

	logU, logD := math.Log(l.U), math.Log(l.D)
	prob := l.P
	n := p.Steps
	s0 := p.S0
	record := b.RecordDraws

	return func(src Source) Sample {
		var draws []float64
		if record {
			draws = make([]float64, n)
		}

		sum := 0.0
		for i := 0; i < n; i++ {
			x := src.Float64()
			if record {
				draws[i] = x
			}
			if x < prob {
				sum += logD
			} else {
				sum += logU
			}
		}
		return Sample{Terminal: s0 * math.Exp(sum), Draws: draws}
	}, nil
}
