package mc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atmParams() Params {
	return Params{S0: 100, K: 100, T: 1.0 / 12, Sigma: 0.3, R: 0.045, Steps: 30, Trials: 20000}
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, atmParams().Validate())

	zeroSigma := atmParams().WithSigma(0)
	require.NoError(t, zeroSigma.Validate(), "sigma=0 is the deterministic case")

	negRate := atmParams()
	negRate.R = -0.01
	require.NoError(t, negRate.Validate(), "rate may be any real")

	tests := []struct {
		name  string
		mod   func(*Params)
		field string
	}{
		{"zero trials", func(p *Params) { p.Trials = 0 }, "trials"},
		{"zero steps", func(p *Params) { p.Steps = 0 }, "steps"},
		{"negative spot", func(p *Params) { p.S0 = -1 }, "s0"},
		{"zero strike", func(p *Params) { p.K = 0 }, "k"},
		{"zero maturity", func(p *Params) { p.T = 0 }, "t"},
		{"negative sigma", func(p *Params) { p.Sigma = -0.2 }, "sigma"},
		{"nan rate", func(p *Params) { p.R = math.NaN() }, "r"},
		{"inf spot", func(p *Params) { p.S0 = math.Inf(1) }, "s0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := atmParams()
			tt.mod(&p)

			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))

			var pe *ParamError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Name)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParams_Derived(t *testing.T) {
	p := Params{S0: 100, K: 100, T: 1, Sigma: 0.2, R: 0.05, Steps: 4, Trials: 1}

	assert.Equal(t, 0.25, p.Delta())
	assert.InDelta(t, 0.03, p.DriftAdj(), 1e-15)
	assert.InDelta(t, math.Exp(-0.05), p.Discount(), 1e-15)

	q := p.WithSigma(0.5).WithTrials(10)
	assert.Equal(t, 0.5, q.Sigma)
	assert.Equal(t, 10, q.Trials)
	assert.Equal(t, 0.2, p.Sigma, "copies must not touch the receiver")
}
