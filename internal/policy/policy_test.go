package policy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPolicy_ProbabilityInOpenInterval(t *testing.T) {
	var p RandomPolicy
	for seed := int64(0); seed < 500; seed++ {
		action, prob, err := p.Choose(ZeroVector(), NewRand(seed))
		require.NoError(t, err)
		require.NoError(t, Validate(action, prob))
		if prob > 0.5 {
			assert.Equal(t, 1, action)
		} else {
			assert.Equal(t, 0, action)
		}
	}
}

func TestRandomPolicy_SameSeedSameChoice(t *testing.T) {
	var p RandomPolicy
	a1, p1, _ := p.Choose(nil, NewRand(42))
	a2, p2, _ := p.Choose(nil, NewRand(42))
	assert.Equal(t, a1, a2)
	assert.Equal(t, p1, p2)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0, 0.3))
	assert.NoError(t, Validate(1, 0.999))
	assert.Error(t, Validate(2, 0.5))
	assert.ErrorIs(t, Validate(1, 0), ErrBadProbability)
	assert.ErrorIs(t, Validate(1, 1), ErrBadProbability)
}

func TestSequentialSeeds_Concurrent(t *testing.T) {
	s := NewSequentialSeeds(100)
	const n = 64
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Seed()
		}()
	}
	wg.Wait()
	close(seen)

	got := map[int64]bool{}
	for v := range seen {
		assert.False(t, got[v], "seed %d handed out twice", v)
		got[v] = true
		assert.GreaterOrEqual(t, v, int64(100))
		assert.Less(t, v, int64(100+n))
	}
	assert.Len(t, got, n)
}

func TestCryptoSeeds_NonNegative(t *testing.T) {
	var c CryptoSeeds
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, c.Seed(), int64(0))
	}
}
