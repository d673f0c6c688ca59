package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/chain"
)

func makeTx(hash string, block uint64, position int, observedAt time.Time) chain.Transaction {
	return chain.Transaction{
		Hash:            hash,
		From:            "0xfrom" + hash,
		To:              "0xcontract",
		BlockNumber:     block,
		PositionInBlock: position,
		ObservedAt:      observedAt,
	}
}

func TestTxWindow_InsertIdempotent(t *testing.T) {
	w := NewTxWindow()
	tx := makeTx("0xaaa", 100, 0, time.Now())

	assert.True(t, w.Insert("ethereum", tx))
	assert.False(t, w.Insert("ethereum", tx))
	assert.Equal(t, 1, w.Count())

	// Same hash on another chain is a distinct entry
	assert.True(t, w.Insert("base", tx))
	assert.Equal(t, 2, w.Count())
}

func TestTxWindow_QueryFilters(t *testing.T) {
	w := NewTxWindow()
	now := time.Now()

	w.Insert("ethereum", makeTx("0xa", 100, 0, now.Add(-2*time.Minute)))
	w.Insert("ethereum", makeTx("0xb", 100, 1, now))
	w.Insert("ethereum", makeTx("0xc", 101, 0, now))

	all := w.Query("ethereum", TxFilter{})
	assert.Len(t, all, 3)

	block := uint64(100)
	inBlock := w.Query("ethereum", TxFilter{BlockNumber: &block})
	assert.Len(t, inBlock, 2)

	recent := w.Query("ethereum", TxFilter{Since: now.Add(-time.Minute)})
	assert.Len(t, recent, 2)

	assert.Empty(t, w.Query("base", TxFilter{}))
}

func TestTxWindow_QueryReturnsCopy(t *testing.T) {
	w := NewTxWindow()
	w.Insert("ethereum", makeTx("0xa", 100, 0, time.Now()))

	first := w.Query("ethereum", TxFilter{})
	require.Len(t, first, 1)
	first[0].Hash = "0xmutated"

	second := w.Query("ethereum", TxFilter{})
	require.Len(t, second, 1)
	assert.Equal(t, "0xa", second[0].Hash)
}

func TestTxWindow_EvictOlderThan(t *testing.T) {
	w := NewTxWindow()
	now := time.Now()

	w.Insert("ethereum", makeTx("0xold", 90, 0, now.Add(-10*time.Minute)))
	w.Insert("ethereum", makeTx("0xfresh", 100, 0, now))
	w.Insert("base", makeTx("0xstale", 50, 0, now.Add(-time.Hour)))

	evicted := w.EvictOlderThan(5 * time.Minute)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, w.Count())

	remaining := w.Query("ethereum", TxFilter{})
	require.Len(t, remaining, 1)
	assert.Equal(t, "0xfresh", remaining[0].Hash)
}

func TestTxWindow_Chains(t *testing.T) {
	w := NewTxWindow()
	assert.Empty(t, w.Chains())

	w.Insert("ethereum", makeTx("0xa", 100, 0, time.Now()))
	w.Insert("base", makeTx("0xb", 200, 0, time.Now()))

	assert.ElementsMatch(t, []string{"ethereum", "base"}, w.Chains())
}

func TestTxWindow_ConcurrentAccess(t *testing.T) {
	w := NewTxWindow()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			w.Insert("ethereum", makeTx(string(rune('a'+i%26))+"x", uint64(i), i, time.Now()))
		}
	}()

	for i := 0; i < 500; i++ {
		w.Query("ethereum", TxFilter{})
		w.Count()
	}
	<-done
}
