package mc

import (
	"fmt"
	"strings"
)

// Source 随机数来源
// 由调用方注入（每个分片一个），*rand.Rand (golang.org/x/exp/rand) 即满足该接口
type Source interface {
	Float64() float64     // U(0,1)
	NormFloat64() float64 // N(0,1)
}

// Sample 单次试验的输出
// Draws 只有二叉策略且开启记录时才有值
type Sample struct {
	Terminal float64   `json:"terminal"`
	Draws    []float64 `json:"draws,omitempty"`
}

// PathFunc 生成一条路径并返回终值
type PathFunc func(src Source) Sample

// Strategy 路径生成策略
//
// Prepare 在试验循环之前调用一次：校验推导量、预计算常数，
// 返回的 PathFunc 只读参数，可被多个分片并发调用。
type Strategy interface {
	Name() string
	Prepare(p Params) (PathFunc, error)
}

const (
	StrategyBinomial  = "binomial"
	StrategyDiffusion = "diffusion"
)

// StrategyByName 按名称创建策略
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyBinomial:
		return &Binomial{}, nil
	case StrategyDiffusion:
		return &Diffusion{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Strategies 所有内置策略
func Strategies() []Strategy {
	return []Strategy{&Binomial{}, &Diffusion{}}
}
