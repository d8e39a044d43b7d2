package dice_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/internal/dice"
)

func TestEvalConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	res, err := dice.Eval("+3", rng)
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
}

func TestEvalSingleDie(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	res, err := dice.Eval("1d6", rng)
	require.NoError(t, err)
	require.Len(t, res.Rolls, 1)
	require.Len(t, res.Rolls[0].Values, 1)
	require.GreaterOrEqual(t, res.Rolls[0].Values[0], 1)
	require.LessOrEqual(t, res.Rolls[0].Values[0], 6)
	require.Equal(t, res.Rolls[0].Values[0], res.Total)
}

func TestEvalCompound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	res, err := dice.Eval("2d8-1d4+3", rng)
	require.NoError(t, err)
	require.Len(t, res.Rolls, 3)

	sum := 0
	for _, r := range res.Rolls {
		sum += r.Total
	}
	require.Equal(t, sum, res.Total)
}

func TestEvalNegativeLead(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	res, err := dice.Eval("-1d4", rng)
	require.NoError(t, err)
	require.Negative(t, res.Rolls[0].Sign)
	require.LessOrEqual(t, res.Total, -1)
	require.GreaterOrEqual(t, res.Total, -4)
}

func TestEvalDeterministicGivenSameSeed(t *testing.T) {
	a, err := dice.Eval("3d10+2", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := dice.Eval("3d10+2", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEvalInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := dice.Eval("", rng)
	require.Error(t, err)
	_, err = dice.Eval("1dX", rng)
	require.Error(t, err)
	_, err = dice.Eval("0d6", rng)
	require.Error(t, err)
}

func TestIsDiceExpr(t *testing.T) {
	require.True(t, dice.IsDiceExpr("1d6"))
	require.False(t, dice.IsDiceExpr("-3"))
}
