package mc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// seqSource 按顺序吐出预设值的随机源
type seqSource struct {
	uniforms []float64
	normals  []float64
}

func (s *seqSource) Float64() float64 {
	v := s.uniforms[0]
	s.uniforms = s.uniforms[1:]
	return v
}

func (s *seqSource) NormFloat64() float64 {
	v := s.normals[0]
	s.normals = s.normals[1:]
	return v
}

func TestNewLattice_Derivation(t *testing.T) {
	p := atmParams()
	l, err := NewLattice(p)
	require.NoError(t, err)

	delta := p.T / 30
	drift := (p.R - p.Sigma*p.Sigma/2) * delta
	shock := p.Sigma * math.Sqrt(delta)

	assert.InDelta(t, delta, l.Delta, 1e-15)
	assert.InDelta(t, math.Exp(drift+shock), l.U, 1e-15)
	assert.InDelta(t, math.Exp(drift-shock), l.D, 1e-15)
	assert.InDelta(t, math.Exp(p.R*delta), l.R, 1e-15)
	assert.InDelta(t, (l.R-l.D)/(l.U-l.D), l.P, 1e-15)
	assert.Greater(t, l.P, 0.0)
	assert.Less(t, l.P, 1.0)
}

func TestNewLattice_ProbabilityOutOfRange(t *testing.T) {
	// sigma·sqrt(delta) = 5 > 2 => R > u => p > 1
	p := Params{S0: 100, K: 100, T: 1, Sigma: 5, R: 0.05, Steps: 1, Trials: 10}

	_, err := NewLattice(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParams))

	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "p", pe.Name)
	assert.Greater(t, pe.Value, 1.0)

	// 同样的参数对扩散策略是合法的
	_, err = (&Diffusion{}).Prepare(p)
	assert.NoError(t, err)
}

func TestNewLattice_Overflow(t *testing.T) {
	p := Params{S0: 100, K: 100, T: 1, Sigma: 1000, R: 0.05, Steps: 1, Trials: 10}

	_, err := NewLattice(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumeric))

	_, err = (&Diffusion{}).Prepare(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumeric))
}

func TestBinomial_StepRule(t *testing.T) {
	p := Params{S0: 100, K: 100, T: 1, Sigma: 0.2, R: 0.05, Steps: 4, Trials: 1}
	l, err := NewLattice(p)
	require.NoError(t, err)

	path, err := (&Binomial{RecordDraws: true}).Prepare(p)
	require.NoError(t, err)

	// 两次 < p (down)，一次 == p (up)，一次 > p (up)
	draws := []float64{l.P / 2, l.P, 0.999, 0}
	s := path(&seqSource{uniforms: append([]float64(nil), draws...)})

	want := p.S0 * math.Exp(2*math.Log(l.D)+2*math.Log(l.U))
	assert.InDelta(t, want, s.Terminal, 1e-9)
	assert.Equal(t, draws, s.Draws)
}

func TestBinomial_DrawsReproduceTerminal(t *testing.T) {
	p := atmParams()
	l, err := NewLattice(p)
	require.NoError(t, err)

	path, err := (&Binomial{RecordDraws: true}).Prepare(p)
	require.NoError(t, err)

	src := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		s := path(src)
		require.Len(t, s.Draws, p.Steps)

		sum := 0.0
		for _, x := range s.Draws {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.Less(t, x, 1.0)
			if x < l.P {
				sum += math.Log(l.D)
			} else {
				sum += math.Log(l.U)
			}
		}
		assert.InDelta(t, p.S0*math.Exp(sum), s.Terminal, 1e-9)
	}
}

func TestBinomial_NoDrawsByDefault(t *testing.T) {
	path, err := (&Binomial{}).Prepare(atmParams())
	require.NoError(t, err)

	s := path(rand.New(rand.NewSource(1)))
	assert.Nil(t, s.Draws)
	assert.Greater(t, s.Terminal, 0.0)
}

func TestDiffusion_Fold(t *testing.T) {
	p := Params{S0: 50, K: 50, T: 0.5, Sigma: 0.4, R: 0.02, Steps: 3, Trials: 1}
	path, err := (&Diffusion{}).Prepare(p)
	require.NoError(t, err)

	z := []float64{0.5, -1.2, 2.0}
	s := path(&seqSource{normals: append([]float64(nil), z...)})

	delta := p.T / 3
	want := p.S0
	for _, zi := range z {
		want *= math.Exp((p.R-p.Sigma*p.Sigma/2)*delta + p.Sigma*math.Sqrt(delta)*zi)
	}
	assert.InDelta(t, want, s.Terminal, 1e-12)
	assert.Nil(t, s.Draws)
}

func TestGenerators_ZeroSigmaDeterministic(t *testing.T) {
	p := atmParams().WithSigma(0)
	want := p.S0 * math.Exp(p.R*p.T)

	for _, s := range Strategies() {
		path, err := s.Prepare(p)
		require.NoError(t, err, s.Name())

		src := rand.New(rand.NewSource(3))
		for i := 0; i < 10; i++ {
			assert.InDelta(t, want, path(src).Terminal, 1e-9, s.Name())
		}
	}
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("Binomial")
	require.NoError(t, err)
	assert.Equal(t, StrategyBinomial, s.Name())

	s, err = StrategyByName(" diffusion ")
	require.NoError(t, err)
	assert.Equal(t, StrategyDiffusion, s.Name())

	_, err = StrategyByName("trinomial")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}
