package mc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams 参数错误：输入违反约束，或推导量（如风险中性概率 p）越界
	ErrInvalidParams = errors.New("invalid parameter")

	// ErrNumeric 数值错误：指数项上溢/下溢，终值变成 Inf/NaN/0
	ErrNumeric = errors.New("numeric overflow")

	// ErrUnknownStrategy 未知的路径生成策略
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// ParamError 指出哪个参数（或推导量）违反了约束，以及它的值
type ParamError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%v: %s=%v (%s)", ErrInvalidParams, e.Name, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParams }

// NumericError 某次试验产生了非有限值，整个模拟作废
// Trial = -1 表示在试验开始前（推导阶段）就已经溢出
type NumericError struct {
	Quantity string
	Value    float64
	Trial    int
}

func (e *NumericError) Error() string {
	if e.Trial < 0 {
		return fmt.Sprintf("%v: %s=%v", ErrNumeric, e.Quantity, e.Value)
	}
	return fmt.Sprintf("%v: %s=%v at trial %d", ErrNumeric, e.Quantity, e.Value, e.Trial)
}

func (e *NumericError) Unwrap() error { return ErrNumeric }
