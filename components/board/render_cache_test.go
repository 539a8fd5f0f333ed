package board

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheMemoizes(t *testing.T) {
	cache := NewChartCache(time.Minute)
	renders := 0
	render := func() (string, error) {
		renders++
		return "<div>chart</div>", nil
	}

	html, err := cache.GetOrRender("k", render)
	require.NoError(t, err)
	assert.Equal(t, "<div>chart</div>", html)

	_, err = cache.GetOrRender("k", render)
	require.NoError(t, err)
	assert.Equal(t, 1, renders)
}

func TestChartCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewChartCache(time.Minute)
	boom := errors.New("render failed")
	_, err := cache.GetOrRender("k", func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	html, err := cache.GetOrRender("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", html)
}

func TestChartCacheZeroTTLDisablesCaching(t *testing.T) {
	cache := NewChartCache(0)
	renders := 0
	render := func() (string, error) {
		renders++
		return "x", nil
	}
	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrRender("k", render); err != nil {
			t.Fatal(err)
		}
	}
	assert.Equal(t, 3, renders)
}

func TestChartCacheExpires(t *testing.T) {
	cache := NewChartCache(time.Millisecond)
	renders := 0
	render := func() (string, error) {
		renders++
		return "x", nil
	}
	if _, err := cache.GetOrRender("k", render); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := cache.GetOrRender("k", render); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, renders)
}

func TestChartCacheEvictsWhenFull(t *testing.T) {
	cache := NewChartCacheWithCapacity(time.Minute, 2)
	renders := 0
	render := func(v string) func() (string, error) {
		return func() (string, error) {
			renders++
			return v, nil
		}
	}

	for _, key := range []string{"a", "b", "c"} {
		_, err := cache.GetOrRender(key, render(key))
		require.NoError(t, err)
	}
	require.Equal(t, 3, renders)

	// b and c survive; a made room for c.
	_, err := cache.GetOrRender("b", render("b"))
	require.NoError(t, err)
	_, err = cache.GetOrRender("c", render("c"))
	require.NoError(t, err)
	assert.Equal(t, 3, renders)

	_, err = cache.GetOrRender("a", render("a"))
	require.NoError(t, err)
	assert.Equal(t, 4, renders)
}

func TestResultsHash(t *testing.T) {
	rows := []map[string]any{{"key": "a", "value": 1.0}}
	same := []map[string]any{{"key": "a", "value": 1.0}}
	other := []map[string]any{{"key": "b", "value": 2.0}}

	assert.Equal(t, resultsHash(rows), resultsHash(same))
	assert.NotEqual(t, resultsHash(rows), resultsHash(other))
	assert.Equal(t, "empty", resultsHash(nil))
}
