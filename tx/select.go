package tx

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libord-go/network"
)

// DustThreshold is the largest output value that is never used as a funding
// input. Single-satoshi outputs are ordinals, not spendable change.
const DustThreshold = uint64(1)

// shortcutMargin is how far a single coin has to exceed the target before it
// is taken on its own.
const shortcutMargin = uint64(2)

// UnspentSource lists the unspent outputs of an address in indexer order.
// Every network.BlockchainService satisfies it.
type UnspentSource interface {
	ListUnspent(ctx context.Context, address string) ([]*network.UTXO, error)
}

// CoinSelector picks funding UTXOs for an address.
type CoinSelector struct {
	Source UnspentSource

	// Tolerance is the window around the target inside which a greedy
	// accumulation is accepted even when it falls short. Defaults to
	// P2PKHInputSize when zero.
	Tolerance uint64
}

// NewCoinSelector returns a selector over src using the default tolerance.
func NewCoinSelector(src UnspentSource) *CoinSelector {
	return &CoinSelector{Source: src, Tolerance: P2PKHInputSize}
}

// Select returns the outputs of address that fund target satoshis.
//
// A zero target selects every non-dust output. Otherwise the first coin
// worth more than target+2 is returned on its own; failing that, coins are
// accumulated in indexer order until the running sum reaches the target or
// comes within Tolerance of it. An empty result means insufficient funds.
//
// Every returned UTXO carries the P2PKH locking script of address.
func (s *CoinSelector) Select(ctx context.Context, address string, target uint64) ([]*UTXO, error) {
	if s == nil || s.Source == nil {
		return nil, fmt.Errorf("%w: unspent source", ErrNilParam)
	}
	lockScript, err := P2PKHScriptForAddress(address)
	if err != nil {
		return nil, err
	}

	candidates, err := s.Source.ListUnspent(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("tx: list unspent for %s: %w", address, err)
	}

	spendable := make([]*network.UTXO, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.Amount > DustThreshold && c.Amount <= MaxSatoshis {
			spendable = append(spendable, c)
		}
	}

	picked := selectCoins(spendable, target, s.tolerance())
	log.Debugf("select %s target=%d: %d candidates, %d spendable, %d chosen",
		address, target, len(candidates), len(spendable), len(picked))

	utxos := make([]*UTXO, 0, len(picked))
	for _, c := range picked {
		txid, err := TxIDFromHex(c.TxID)
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, &UTXO{
			TxID:         txid,
			Vout:         c.Vout,
			Amount:       c.Amount,
			ScriptPubKey: lockScript.Bytes(),
		})
	}
	return utxos, nil
}

// SelectOrFail is Select with an empty selection reported as ErrInsufficientFunds.
func (s *CoinSelector) SelectOrFail(ctx context.Context, address string, target uint64) ([]*UTXO, error) {
	utxos, err := s.Select(ctx, address, target)
	if err != nil {
		return nil, err
	}
	if len(utxos) == 0 {
		return nil, fmt.Errorf("%w: %s cannot cover %d sat", ErrInsufficientFunds, address, target)
	}
	return utxos, nil
}

func (s *CoinSelector) tolerance() uint64 {
	if s.Tolerance == 0 {
		return P2PKHInputSize
	}
	return s.Tolerance
}

// selectCoins runs the two-tier policy over non-dust candidates.
func selectCoins(coins []*network.UTXO, target, tolerance uint64) []*network.UTXO {
	if target == 0 {
		return coins
	}
	if target > MaxSatoshis {
		return nil
	}

	for _, c := range coins {
		if c.Amount > shortcutMargin && c.Amount-shortcutMargin > target {
			return []*network.UTXO{c}
		}
	}

	var (
		acc []*network.UTXO
		sum uint64
	)
	for _, c := range coins {
		if c.Amount > MaxSatoshis-sum {
			return nil
		}
		acc = append(acc, c)
		sum += c.Amount
		if sum >= target || withinTolerance(sum, target, tolerance) {
			return acc
		}
	}
	return nil
}

func withinTolerance(sum, target, tolerance uint64) bool {
	if sum > target {
		return sum-target <= tolerance
	}
	return target-sum <= tolerance
}
