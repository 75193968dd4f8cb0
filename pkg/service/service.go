// 文件: pkg/service/service.go
// 定价服务
//
// 职责:
// 1. 解析请求：内联参数或场景名
// 2. 对每个策略跑一次蒙特卡洛估计 + 矩诊断
// 3. 调用闭式参考定价做对比
// 4. 生成并发布报告

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"max.com/mcoption/pkg/mc"
	"max.com/mcoption/pkg/report"
	"max.com/mcoption/pkg/scenario"
)

// ErrEmptyRequest 请求既没有参数也没有场景名
var ErrEmptyRequest = errors.New("request has neither params nor scenario")

// ReferencePricer 闭式参考定价（外部协作方）
type ReferencePricer interface {
	CallPrice(p mc.Params) (float64, error)
}

// Request 定价请求
type Request struct {
	Scenario    string     `json:"scenario,omitempty"`
	Params      *mc.Params `json:"params,omitempty"`     // 优先于 Scenario
	Strategies  []string   `json:"strategies,omitempty"` // 为空时跑全部策略
	Seed        *uint64    `json:"seed,omitempty"`       // 为空时用服务配置的种子
	RecordDraws bool       `json:"record_draws,omitempty"`
}

// Response NATS 回复
type Response struct {
	Reports []report.Report `json:"reports,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Config 服务配置
type Config struct {
	Estimator      mc.EstimatorConfig
	RequestTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Estimator:      mc.DefaultEstimatorConfig(),
		RequestTimeout: 30 * time.Second,
	}
}

// Service 定价服务
type Service struct {
	repo      scenario.Repository
	pricer    ReferencePricer
	publisher report.Publisher
	cfg       Config
}

// New 创建服务；publisher 可以为 nil
func New(repo scenario.Repository, pricer ReferencePricer, publisher report.Publisher, cfg Config) *Service {
	if publisher == nil {
		publisher = report.Multi{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Service{repo: repo, pricer: pricer, publisher: publisher, cfg: cfg}
}

// Price 处理一个定价请求，按策略顺序返回报告
func (s *Service) Price(ctx context.Context, req Request) ([]report.Report, error) {
	// 1. 参数
	name, params, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	strategies, err := resolveStrategies(req)
	if err != nil {
		return nil, err
	}

	// 2. 参考价（与策略无关，只算一次）
	ref, err := s.pricer.CallPrice(params)
	if err != nil {
		return nil, fmt.Errorf("reference price: %w", err)
	}

	cfg := s.cfg.Estimator
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	est := mc.NewEstimator(cfg)

	// 3. 逐个策略估计
	reports := make([]report.Report, 0, len(strategies))
	for _, st := range strategies {
		res, err := est.Run(ctx, params, st)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.Name(), err)
		}

		diag, err := mc.DiagnoseResult(res)
		if err != nil {
			return nil, fmt.Errorf("%s diagnostics: %w", st.Name(), err)
		}

		r := report.Build(name, res, diag, ref)

		// 4. 发布失败不影响返回
		if err := s.publisher.Publish(ctx, r); err != nil {
			log.Printf("[Service] publish run=%s: %v", r.Key(), err)
		}
		reports = append(reports, r)
	}

	return reports, nil
}

func (s *Service) resolve(ctx context.Context, req Request) (string, mc.Params, error) {
	if req.Params != nil {
		return req.Scenario, *req.Params, nil
	}
	if req.Scenario == "" {
		return "", mc.Params{}, ErrEmptyRequest
	}

	sc, err := s.repo.Get(ctx, req.Scenario)
	if err != nil {
		return "", mc.Params{}, fmt.Errorf("load scenario %q: %w", req.Scenario, err)
	}
	return sc.Name, sc.Params(), nil
}

func resolveStrategies(req Request) ([]mc.Strategy, error) {
	if len(req.Strategies) == 0 {
		req.Strategies = []string{mc.StrategyBinomial, mc.StrategyDiffusion}
	}

	out := make([]mc.Strategy, 0, len(req.Strategies))
	for _, name := range req.Strategies {
		st, err := mc.StrategyByName(name)
		if err != nil {
			return nil, err
		}
		if b, ok := st.(*mc.Binomial); ok {
			b.RecordDraws = req.RecordDraws
		}
		out = append(out, st)
	}
	return out, nil
}

// =============================================================================
// NATS 入口
// =============================================================================

// HandleNATS 解码请求、定价、编码回复
// 定价错误写进 Response.Error 回给请求方，同时返回给订阅者记日志
func (s *Service) HandleNATS(subject string, data []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		err = fmt.Errorf("decode request: %w", err)
		return encodeResponse(Response{Error: err.Error()}), err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	reports, err := s.Price(ctx, req)
	if err != nil {
		return encodeResponse(Response{Error: err.Error()}), err
	}
	return encodeResponse(Response{Reports: reports}), nil
}

func encodeResponse(r Response) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		data, _ = json.Marshal(Response{Error: err.Error()})
	}
	return data
}
