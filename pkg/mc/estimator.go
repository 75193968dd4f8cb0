// 文件: pkg/mc/estimator.go
// 蒙特卡洛估计器
//
// 设计思想:
// - 与策略无关：同一段代码服务二叉和扩散两种路径
// - M 次试验按固定大小切成块 (chunk)，每块一个独立种子的随机源
// - 块的结果按试验下标写入预分配切片，结果与并发度、调度顺序无关
// - 任何一次试验出现非有限值都会中止整个模拟，不跳过、不重试

package mc

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"max.com/mcoption/pkg/runid"
)

// =============================================================================
// 配置
// =============================================================================

const (
	// DefaultChunkSize 每块的试验数
	DefaultChunkSize = 4096

	// seedStride 块种子间隔（64 位黄金分割常数），让相邻块的 PCG 流错开
	seedStride = 0x9E3779B97F4A7C15
)

// EstimatorConfig 估计器配置
type EstimatorConfig struct {
	Workers   int    // 并发块数上限
	ChunkSize int    // 每块试验数
	Seed      uint64 // 基础种子；相同种子 + 相同块大小 => 相同结果
	Quiet     bool   // 不打印运行日志
}

// DefaultEstimatorConfig 默认配置：CPU 核数个 worker，时间戳做种子
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: DefaultChunkSize,
		Seed:      uint64(time.Now().UnixNano()),
	}
}

// =============================================================================
// 结果
// =============================================================================

// Result 一次估计的聚合结果，构造后只读
type Result struct {
	RunID    int64         `json:"run_id"`
	Strategy string        `json:"strategy"`
	Params   Params        `json:"params"`
	Seed     uint64        `json:"seed"`
	Price    float64       `json:"price"`   // 折现后的平均收益
	StdErr   float64       `json:"std_err"` // 折现收益的样本标准差 / sqrt(M)
	Samples  []Sample      `json:"-"`       // 按试验顺序的终值样本
	Payoffs  []float64     `json:"-"`       // 按试验顺序的 (未折现) 收益
	Elapsed  time.Duration `json:"elapsed"`
}

// Terminals 按试验顺序返回终值
func (r *Result) Terminals() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Terminal
	}
	return out
}

// ConfidenceInterval 价格的置信区间 price ± z·SE
func (r *Result) ConfidenceInterval(z float64) (lo, hi float64) {
	return r.Price - z*r.StdErr, r.Price + z*r.StdErr
}

// =============================================================================
// Estimator
// =============================================================================

// Estimator 蒙特卡洛估计器，本身无状态，可被并发复用
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator 创建估计器，非法配置项回落到默认值
func NewEstimator(cfg EstimatorConfig) *Estimator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Estimator{cfg: cfg}
}

// Config 返回生效的配置
func (e *Estimator) Config() EstimatorConfig { return e.cfg }

// Run 用给定策略执行 M 次独立试验
//
// 步骤:
// 1. 校验参数、准备策略（只做一次，失败则一次试验都不跑）
// 2. 按块并行生成终值与收益
// 3. 折现、求均值和标准误差
func (e *Estimator) Run(ctx context.Context, p Params, s Strategy) (*Result, error) {
	start := time.Now()

	// 1. 校验 + 准备
	if err := p.Validate(); err != nil {
		return nil, err
	}
	path, err := s.Prepare(p)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", s.Name(), err)
	}

	// 2. 并行试验
	samples := make([]Sample, p.Trials)
	payoffs := make([]float64, p.Trials)

	if err := e.simulate(ctx, p, path, samples, payoffs); err != nil {
		return nil, err
	}

	// 3. 聚合
	disc := p.Discount()
	discounted := make([]float64, len(payoffs))
	for i, v := range payoffs {
		discounted[i] = v * disc
	}

	price, stdErr := meanStdErr(discounted)
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, &NumericError{Quantity: "price", Value: price, Trial: -1}
	}

	res := &Result{
		RunID:    runid.Next(),
		Strategy: s.Name(),
		Params:   p,
		Seed:     e.cfg.Seed,
		Price:    price,
		StdErr:   stdErr,
		Samples:  samples,
		Payoffs:  payoffs,
		Elapsed:  time.Since(start),
	}

	if !e.cfg.Quiet {
		log.Printf("[Estimator] run=%d strategy=%s trials=%d steps=%d price=%.6f se=%.6f elapsed=%v",
			res.RunID, res.Strategy, p.Trials, p.Steps, res.Price, res.StdErr, res.Elapsed)
	}
	return res, nil
}

// simulate 把试验切块并发执行
func (e *Estimator) simulate(ctx context.Context, p Params, path PathFunc, samples []Sample, payoffs []float64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	chunk := e.cfg.ChunkSize
	for idx, lo := 0, 0; lo < p.Trials; idx, lo = idx+1, lo+chunk {
		hi := min(lo+chunk, p.Trials)
		seed := e.cfg.Seed + uint64(idx)*seedStride

		g.Go(func() error {
			src := rand.New(rand.NewSource(seed))
			return runChunk(gctx, p.K, path, src, lo, samples[lo:hi], payoffs[lo:hi])
		})
	}
	return g.Wait()
}

// runChunk 执行一个块，offset 是块内第一个试验的全局下标
func runChunk(ctx context.Context, strike float64, path PathFunc, src Source, offset int, samples []Sample, payoffs []float64) error {
	for i := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}

		s := path(src)
		if math.IsInf(s.Terminal, 0) || math.IsNaN(s.Terminal) || s.Terminal == 0 {
			return &NumericError{Quantity: "terminal", Value: s.Terminal, Trial: offset + i}
		}

		samples[i] = s
		payoffs[i] = CallPayoff(s.Terminal, strike)
	}
	return nil
}

// CallPayoff 看涨期权到期收益 max(S - K, 0)
func CallPayoff(terminal, strike float64) float64 {
	return math.Max(terminal-strike, 0)
}

// meanStdErr 均值与标准误差（样本标准差，N-1 做除数）
// 只有一个样本时标准差无定义，标准误差记为 0；
// 样本全相同（sigma = 0）时直接返回，保证误差精确为 0
func meanStdErr(xs []float64) (mean, se float64) {
	if len(xs) == 1 || floats.Min(xs) == floats.Max(xs) {
		return xs[0], 0
	}
	mean, variance := stat.MeanVariance(xs, nil)
	if variance < 0 { // 舍入
		variance = 0
	}
	return mean, math.Sqrt(variance / float64(len(xs)))
}
