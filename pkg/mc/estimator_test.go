package mc

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEstimator(seed uint64) *Estimator {
	return NewEstimator(EstimatorConfig{Workers: 4, ChunkSize: 1000, Seed: seed, Quiet: true})
}

// infStrategy 所有路径都溢出
type infStrategy struct{}

func (infStrategy) Name() string { return "inf" }

func (infStrategy) Prepare(Params) (PathFunc, error) {
	return func(Source) Sample { return Sample{Terminal: math.Inf(1)} }, nil
}

func TestEstimator_RejectsBadParamsBeforeRunning(t *testing.T) {
	e := testEstimator(1)

	for _, mod := range []func(*Params){
		func(p *Params) { p.Trials = 0 },
		func(p *Params) { p.Steps = 0 },
	} {
		p := atmParams()
		mod(&p)
		for _, s := range Strategies() {
			res, err := e.Run(context.Background(), p, s)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrInvalidParams))
		}
	}
}

func TestEstimator_RejectsInvalidRiskNeutralProbability(t *testing.T) {
	p := Params{S0: 100, K: 100, T: 1, Sigma: 5, R: 0.05, Steps: 1, Trials: 100}

	res, err := testEstimator(1).Run(context.Background(), p, &Binomial{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInvalidParams))
	assert.Contains(t, err.Error(), "p=")
}

func TestEstimator_NumericErrorAbortsRun(t *testing.T) {
	p := atmParams().WithTrials(5000)

	res, err := testEstimator(1).Run(context.Background(), p, infStrategy{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrNumeric))

	var ne *NumericError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "terminal", ne.Quantity)
	assert.GreaterOrEqual(t, ne.Trial, 0)
}

func TestEstimator_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := testEstimator(1).Run(ctx, atmParams(), &Diffusion{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEstimator_ResultShape(t *testing.T) {
	p := atmParams().WithTrials(2500)
	res, err := testEstimator(11).Run(context.Background(), p, &Binomial{RecordDraws: true})
	require.NoError(t, err)

	assert.Equal(t, StrategyBinomial, res.Strategy)
	assert.Equal(t, p, res.Params)
	assert.NotZero(t, res.RunID)
	require.Len(t, res.Samples, p.Trials)
	require.Len(t, res.Payoffs, p.Trials)

	sum := 0.0
	for i, s := range res.Samples {
		assert.Len(t, s.Draws, p.Steps)
		assert.Equal(t, math.Max(s.Terminal-p.K, 0), res.Payoffs[i])
		sum += res.Payoffs[i]
	}
	assert.InDelta(t, sum/float64(p.Trials)*p.Discount(), res.Price, 1e-9)

	terms := res.Terminals()
	require.Len(t, terms, p.Trials)
	assert.Equal(t, res.Samples[42].Terminal, terms[42])

	lo, hi := res.ConfidenceInterval(1.96)
	assert.InDelta(t, res.Price-1.96*res.StdErr, lo, 1e-12)
	assert.InDelta(t, res.Price+1.96*res.StdErr, hi, 1e-12)
}

func TestEstimator_StdErrUsesSampleDeviation(t *testing.T) {
	p := atmParams().WithTrials(3000)
	res, err := testEstimator(5).Run(context.Background(), p, &Diffusion{})
	require.NoError(t, err)

	disc := p.Discount()
	mean := 0.0
	for _, v := range res.Payoffs {
		mean += v * disc
	}
	mean /= float64(len(res.Payoffs))

	ss := 0.0
	for _, v := range res.Payoffs {
		d := v*disc - mean
		ss += d * d
	}
	want := math.Sqrt(ss/float64(len(res.Payoffs)-1)) / math.Sqrt(float64(len(res.Payoffs)))
	assert.InDelta(t, want, res.StdErr, 1e-12)
}

func TestEstimator_SingleTrial(t *testing.T) {
	res, err := testEstimator(5).Run(context.Background(), atmParams().WithTrials(1), &Diffusion{})
	require.NoError(t, err)
	assert.Len(t, res.Samples, 1)
	assert.Equal(t, 0.0, res.StdErr)
	assert.False(t, math.IsNaN(res.Price))
}

func TestEstimator_DeterministicForSeed(t *testing.T) {
	p := atmParams().WithTrials(5000)

	for _, s := range Strategies() {
		a, err := NewEstimator(EstimatorConfig{Workers: 1, ChunkSize: 700, Seed: 99, Quiet: true}).Run(context.Background(), p, s)
		require.NoError(t, err)
		b, err := NewEstimator(EstimatorConfig{Workers: 8, ChunkSize: 700, Seed: 99, Quiet: true}).Run(context.Background(), p, s)
		require.NoError(t, err)
		c, err := NewEstimator(EstimatorConfig{Workers: 8, ChunkSize: 700, Seed: 100, Quiet: true}).Run(context.Background(), p, s)
		require.NoError(t, err)

		assert.Equal(t, a.Price, b.Price, s.Name())
		assert.Equal(t, a.StdErr, b.StdErr, s.Name())
		assert.Equal(t, a.Terminals(), b.Terminals(), s.Name())
		assert.NotEqual(t, a.Price, c.Price, s.Name())
	}
}

func TestEstimator_ZeroSigmaExact(t *testing.T) {
	p := atmParams().WithSigma(0).WithTrials(1000)
	want := p.Discount() * math.Max(p.S0*math.Exp(p.R*p.T)-p.K, 0)

	for _, s := range Strategies() {
		res, err := testEstimator(3).Run(context.Background(), p, s)
		require.NoError(t, err, s.Name())
		assert.InDelta(t, want, res.Price, 1e-9, s.Name())
		assert.InDelta(t, 0, res.StdErr, 1e-12, s.Name())
	}
}

func TestNewEstimator_Defaults(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	assert.Greater(t, e.Config().Workers, 0)
	assert.Equal(t, DefaultChunkSize, e.Config().ChunkSize)

	def := DefaultEstimatorConfig()
	assert.Greater(t, def.Workers, 0)
	assert.Equal(t, DefaultChunkSize, def.ChunkSize)
}

func TestCallPayoff(t *testing.T) {
	assert.Equal(t, 5.0, CallPayoff(105, 100))
	assert.Equal(t, 0.0, CallPayoff(95, 100))
	assert.Equal(t, 0.0, CallPayoff(100, 100))
}
