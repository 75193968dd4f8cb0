// 文件: pkg/report/report.go
// 定价报告：估计结果 + 闭式参考价 + 矩诊断

package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"max.com/mcoption/pkg/mc"
	"max.com/mcoption/pkg/runid"
)

const (
	// amountPlaces 金额保留的小数位
	amountPlaces = 6

	// ciZ 95% 置信区间的正态分位数
	ciZ = 1.959963984540054
)

// MomentRow 一行矩诊断
type MomentRow struct {
	Name        string  `json:"name"`
	Empirical   float64 `json:"empirical"`
	Theoretical float64 `json:"theoretical"`
	Gap         float64 `json:"gap"`
}

// Report 单个策略的一次定价报告
type Report struct {
	RunID     int64     `json:"run_id"`
	Scenario  string    `json:"scenario,omitempty"`
	Strategy  string    `json:"strategy"`
	Params    mc.Params `json:"params"`
	Seed      uint64    `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	ElapsedMs int64     `json:"elapsed_ms"`

	Price     decimal.Decimal `json:"price"`
	StdErr    decimal.Decimal `json:"std_err"`
	CILow     decimal.Decimal `json:"ci95_low"`
	CIHigh    decimal.Decimal `json:"ci95_high"`
	Reference decimal.Decimal `json:"reference"`

	// ZScore (price - reference) / std_err；std_err 为 0 时为 0
	ZScore float64 `json:"z_score"`

	Moments []MomentRow `json:"moments"`
}

// Build 由估计结果、诊断和参考价构造报告
func Build(scenario string, res *mc.Result, diag mc.Diagnostics, reference float64) Report {
	lo, hi := res.ConfidenceInterval(ciZ)

	var z float64
	if res.StdErr > 0 {
		z = (res.Price - reference) / res.StdErr
	}

	rows := make([]MomentRow, 0, 4)
	for _, m := range diag.Moments() {
		rows = append(rows, MomentRow{
			Name:        m.Name,
			Empirical:   m.Empirical,
			Theoretical: m.Theoretical,
			Gap:         m.Gap(),
		})
	}

	return Report{
		RunID:     res.RunID,
		Scenario:  scenario,
		Strategy:  res.Strategy,
		Params:    res.Params,
		Seed:      res.Seed,
		CreatedAt: time.Now().UTC(),
		ElapsedMs: res.Elapsed.Milliseconds(),
		Price:     amount(res.Price),
		StdErr:    amount(res.StdErr),
		CILow:     amount(lo),
		CIHigh:    amount(hi),
		Reference: amount(reference),
		ZScore:    z,
		Moments:   rows,
	}
}

func amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(amountPlaces)
}

// WithinReference 参考价是否落在 k 倍标准误差内
func (r Report) WithinReference(k float64) bool {
	return math.Abs(r.ZScore) <= k
}

// Key 消息 key
func (r Report) Key() string {
	return runid.String(r.RunID)
}

// Format 人类可读的多行文本
func (r Report) Format() string {
	var b strings.Builder

	name := r.Scenario
	if name == "" {
		name = "inline"
	}
	fmt.Fprintf(&b, "run %s  scenario=%s  strategy=%s  seed=%d  %dms\n",
		r.Key(), name, r.Strategy, r.Seed, r.ElapsedMs)
	fmt.Fprintf(&b, "  s0=%g k=%g T=%g sigma=%g r=%g n=%d M=%d\n",
		r.Params.S0, r.Params.K, r.Params.T, r.Params.Sigma, r.Params.R, r.Params.Steps, r.Params.Trials)
	fmt.Fprintf(&b, "  price     %s ± %s  (95%% CI %s .. %s)\n",
		r.Price.StringFixed(4), r.StdErr.StringFixed(4), r.CILow.StringFixed(4), r.CIHigh.StringFixed(4))
	fmt.Fprintf(&b, "  reference %s  z=%+.2f\n", r.Reference.StringFixed(4), r.ZScore)
	for _, m := range r.Moments {
		fmt.Fprintf(&b, "  %-4s empirical=%+.6f theoretical=%+.6f gap=%.6f\n",
			m.Name, m.Empirical, m.Theoretical, m.Gap)
	}
	return b.String()
}

// =============================================================================
// Kafka 消息适配
// =============================================================================

// TopicReports 报告 topic
const TopicReports = "mc_pricing_reports"

// Message 把报告包装成 kafka.Message
type Message struct {
	topic  string
	report Report
}

// NewMessage 创建消息，topic 为空时用默认 topic
func NewMessage(topic string, r Report) Message {
	if topic == "" {
		topic = TopicReports
	}
	return Message{topic: topic, report: r}
}

func (m Message) Topic() string { return m.topic }

func (m Message) Key() string { return m.report.Key() }

func (m Message) Value() ([]byte, error) { return json.Marshal(m.report) }
