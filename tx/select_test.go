package tx

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/bitfsorg/libord-go/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves a fixed unspent list regardless of address.
type stubSource struct {
	coins []*network.UTXO
	err   error
	calls int
}

func (s *stubSource) ListUnspent(_ context.Context, _ string) ([]*network.UTXO, error) {
	s.calls++
	return s.coins, s.err
}

func coins(amounts ...uint64) []*network.UTXO {
	out := make([]*network.UTXO, len(amounts))
	for i, a := range amounts {
		out[i] = &network.UTXO{TxID: testTxIDHex(i + 1), Vout: uint32(i), Amount: a}
	}
	return out
}

func amountsOf(utxos []*UTXO) []uint64 {
	out := make([]uint64, len(utxos))
	for i, u := range utxos {
		out[i] = u.Amount
	}
	return out
}

func selectFor(t *testing.T, src *stubSource, target uint64) []*UTXO {
	t.Helper()
	priv, _ := generateTestKeyPair(t)
	got, err := NewCoinSelector(src).Select(context.Background(), testAddress(t, priv), target)
	require.NoError(t, err)
	return got
}

// --- Select tests ---

func TestSelect_SingleCoinShortcut(t *testing.T) {
	src := &stubSource{coins: coins(100, 5000, 20000)}
	got := selectFor(t, src, 1000)
	assert.Equal(t, []uint64{5000}, amountsOf(got))
	assert.Equal(t, uint32(1), got[0].Vout)
	assert.Equal(t, testTxIDHex(2), got[0].TxIDHex())
}

func TestSelect_ShortcutBoundary(t *testing.T) {
	// target+2 itself does not qualify; the greedy pass takes over.
	got := selectFor(t, &stubSource{coins: coins(1002, 1003)}, 1000)
	assert.Equal(t, []uint64{1003}, amountsOf(got))

	got = selectFor(t, &stubSource{coins: coins(1002, 500)}, 1000)
	assert.Equal(t, []uint64{1002}, amountsOf(got), "greedy stops at first coin with sum >= target")
}

func TestSelect_GreedyAccumulation(t *testing.T) {
	got := selectFor(t, &stubSource{coins: coins(400, 300, 200, 900)}, 1000)
	assert.Equal(t, []uint64{400, 300, 200}, amountsOf(got))
}

func TestSelect_ToleranceAcceptsShortfall(t *testing.T) {
	// 400+300 = 700 is 300 short; 400+300+200 = 900 is within 149 of 1000.
	got := selectFor(t, &stubSource{coins: coins(400, 300, 200)}, 1000)
	assert.Equal(t, []uint64{400, 300, 200}, amountsOf(got))

	priv, _ := generateTestKeyPair(t)
	strict := &CoinSelector{Source: &stubSource{coins: coins(400, 300, 200)}, Tolerance: 50}
	got, err := strict.Select(context.Background(), testAddress(t, priv), 1000)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelect_Insufficient(t *testing.T) {
	src := &stubSource{coins: coins(100, 200)}
	assert.Empty(t, selectFor(t, src, 10000))

	priv, _ := generateTestKeyPair(t)
	_, err := NewCoinSelector(src).SelectOrFail(context.Background(), testAddress(t, priv), 10000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSelect_TargetNearUint64Max(t *testing.T) {
	src := &stubSource{coins: coins(3, 5000)}
	for _, target := range []uint64{math.MaxUint64, math.MaxUint64 - 1, MaxSatoshis + 1} {
		assert.Empty(t, selectFor(t, src, target), "target %d", target)
	}
}

func TestSelect_IgnoresCoinsBeyondSupply(t *testing.T) {
	src := &stubSource{coins: coins(math.MaxUint64, MaxSatoshis, 600)}
	assert.Equal(t, []uint64{MaxSatoshis}, amountsOf(selectFor(t, src, 1000)))

	src = &stubSource{coins: coins(MaxSatoshis-1000, 600, 700)}
	assert.Empty(t, selectFor(t, src, MaxSatoshis), "accumulation never passes the supply")
}

func TestAddAmounts(t *testing.T) {
	sum, err := AddAmounts(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), sum)

	sum, err = AddAmounts(MaxSatoshis-1, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxSatoshis, sum)

	for _, vals := range [][]uint64{
		{MaxSatoshis, 1},
		{math.MaxUint64, 3},
		{math.MaxUint64 - 1, 2, 1},
	} {
		_, err := AddAmounts(vals...)
		assert.ErrorIs(t, err, ErrAmountOverflow, "%v", vals)
	}
}

func TestSelect_ZeroTargetReturnsAllNonDust(t *testing.T) {
	got := selectFor(t, &stubSource{coins: coins(1, 500, 1, 700)}, 0)
	assert.Equal(t, []uint64{500, 700}, amountsOf(got))
}

func TestSelect_SkipsDust(t *testing.T) {
	got := selectFor(t, &stubSource{coins: coins(1, 1, 1, 2000)}, 1000)
	assert.Equal(t, []uint64{2000}, amountsOf(got))

	assert.Empty(t, selectFor(t, &stubSource{coins: coins(1, 1, 1)}, 1))
}

func TestSelect_AttachesAddressScript(t *testing.T) {
	priv, pub := generateTestKeyPair(t)
	want, err := BuildP2PKHScript(pub)
	require.NoError(t, err)

	got, err := NewCoinSelector(&stubSource{coins: coins(5000)}).Select(context.Background(), testAddress(t, priv), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0].ScriptPubKey)
	assert.Nil(t, got[0].PrivateKey)
}

func TestSelect_Errors(t *testing.T) {
	priv, _ := generateTestKeyPair(t)
	addr := testAddress(t, priv)

	boom := errors.New("indexer down")
	_, err := NewCoinSelector(&stubSource{err: boom}).Select(context.Background(), addr, 10)
	assert.ErrorIs(t, err, boom)

	src := &stubSource{coins: coins(5000)}
	_, err = NewCoinSelector(src).Select(context.Background(), "bogus", 10)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Zero(t, src.calls, "address is validated before querying")

	var nilSel *CoinSelector
	_, err = nilSel.Select(context.Background(), addr, 10)
	assert.ErrorIs(t, err, ErrNilParam)

	bad := []*network.UTXO{{TxID: "nothex", Amount: 5000}}
	_, err = NewCoinSelector(&stubSource{coins: bad}).Select(context.Background(), addr, 10)
	assert.ErrorIs(t, err, ErrInvalidTxID)
}

func TestSelectCoins_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(8)
		var list []*network.UTXO
		var total uint64
		for i := 0; i < n; i++ {
			a := uint64(rng.Intn(3000)) + 2
			total += a
			list = append(list, &network.UTXO{Amount: a})
		}
		target := uint64(rng.Intn(6000)) + 1

		picked := selectCoins(list, target, P2PKHInputSize)
		var sum uint64
		for _, c := range picked {
			sum += c.Amount
		}
		if len(picked) == 0 {
			if n == 0 {
				continue
			}
			assert.Less(t, total+P2PKHInputSize, target+1, "empty selection only when funds fall short")
			continue
		}
		if len(picked) == 1 && picked[0].Amount > target+shortcutMargin {
			continue
		}
		assert.True(t, sum >= target || target-sum <= P2PKHInputSize,
			"iter %d: sum %d target %d", iter, sum, target)
		// Greedy picks a prefix of the candidate order.
		for i, c := range picked {
			assert.Same(t, list[i], c)
		}
	}
}
