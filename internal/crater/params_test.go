package crater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParamsValidate tests per-field validation of the analysis parameters.
func TestParamsValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, DefaultParams().Validate())
	})

	t.Run("zero value is rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, Params{}.Validate())
	})

	t.Run("surface bins below two", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()
		p.SurfaceBins = 1

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SurfaceBins")
	})

	t.Run("pileup count below one", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()
		p.PileupCount = 0

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PileupCount")
	})

	t.Run("rim tolerance must be positive", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()

		p.RimTolerance = 0
		assert.Error(t, p.Validate())

		p.RimTolerance = -3.0
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RimTolerance")
	})

	t.Run("minor axis window below two", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()
		p.MinorAxisWindow = 1

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MinorAxisWindow")
	})

	t.Run("projectile diameter must be positive", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()
		p.ProjectileDiameter = -100

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ProjectileDiameter")
	})

	t.Run("length scale must be positive", func(t *testing.T) {
		t.Parallel()
		p := DefaultParams()
		p.LengthScale = 0

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LengthScale")
	})

	t.Run("small but positive values pass", func(t *testing.T) {
		t.Parallel()
		p := Params{
			SurfaceBins:        2,
			PileupCount:        1,
			RimTolerance:       0.001,
			MinorAxisWindow:    2,
			ProjectileDiameter: 0.5,
			LengthScale:        1.0,
		}
		assert.NoError(t, p.Validate())
	})
}

// TestNewAnalyzerRejectsInvalidParams tests that analyzer construction runs
// the same validation as Params.Validate.
func TestNewAnalyzerRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.SurfaceBins = 0

	a, err := NewAnalyzer(p)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "invalid analysis params")
}
