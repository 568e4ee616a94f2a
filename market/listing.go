package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/libord-go/ordlock"
	"github.com/bitfsorg/libord-go/tx"
)

// PurchaseFixedSats is the miner fee left by a purchase. The listed
// ordinal's own satoshi funds the buyer output, so change is total payer
// input - payout - market fee - PurchaseFixedSats.
const PurchaseFixedSats = uint64(2)

// CancelParams names a listing to take off the market.
type CancelParams struct {
	ListingTxID   string
	ListingVout   uint32
	OwnerKey      *ec.PrivateKey
	PayerKey      *ec.PrivateKey
	ToAddress     string
	ChangeAddress string // defaults to the payer address
}

// Cancel spends a listing through its owner branch, returning the ordinal
// to ToAddress. The listing is input 0; outputs are [ToAddress 1 sat,
// change].
func (m *Market) Cancel(ctx context.Context, p CancelParams) (*Result, error) {
	if p.OwnerKey == nil {
		return nil, fmt.Errorf("%w: owner key", ErrInvalidParams)
	}
	payer, err := m.payerAddress(p.PayerKey, "payer")
	if err != nil {
		return nil, err
	}
	changeAddr := p.ChangeAddress
	if changeAddr == "" {
		changeAddr = payer
	}
	recipient, err := tx.BuildP2PKHOutput(p.ToAddress, OrdinalSats)
	if err != nil {
		return nil, err
	}

	listingUTXO, listing, err := m.fetchListing(ctx, p.ListingTxID, p.ListingVout)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(listing.OwnerPKH, p.OwnerKey.PubKey().Hash()) {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, listingUTXO)
	}

	draft := transaction.NewTransaction()
	if err := tx.AddInput(draft, listingUTXO); err != nil {
		return nil, err
	}
	draft.AddOutput(recipient)

	payments, _, err := m.addPayment(ctx, draft, listingUTXO.Amount, p.PayerKey, changeAddr)
	if err != nil {
		return nil, err
	}

	unlock, err := ordlock.BuildCancelUnlock(draft, 0, p.OwnerKey)
	if err != nil {
		return nil, err
	}
	draft.Inputs[0].UnlockingScript = unlock
	if err := tx.SignInputs(draft, append([]*tx.UTXO{nil}, payments...)); err != nil {
		return nil, err
	}

	res := newResult(draft)
	log.Debugf("Cancel listing %s in %s", listingUTXO, res.TxID)
	return res, nil
}

// BuyParams names a listing and where the purchase pays.
type BuyParams struct {
	ListingTxID string
	ListingVout uint32
	PayerKey    *ec.PrivateKey
	ToAddress   string

	// ChangeAddress receives what is left of the payer inputs. When empty
	// the change goes back to the payer address; change is never dropped
	// as extra miner fee.
	ChangeAddress string

	// FeeAddress receives floor(payout * MarketFeeRate). Both must be set
	// for a market fee to be charged.
	FeeAddress    string
	MarketFeeRate decimal.Decimal
}

// Buy purchases a listing through its covenant branch. No seller
// signature is involved. The listing is input 0 and payer coins follow it;
// outputs are
//
//	[ToAddress 1 sat, payout, change?, market fee?]
//
// Zero change is left out. A market fee is charged only at a positive rate.
func (m *Market) Buy(ctx context.Context, p BuyParams) (*Result, error) {
	payer, err := m.payerAddress(p.PayerKey, "payer")
	if err != nil {
		return nil, err
	}
	changeAddr := p.ChangeAddress
	if changeAddr == "" {
		changeAddr = payer
	}
	if p.MarketFeeRate.IsNegative() {
		return nil, fmt.Errorf("%w: market fee rate %s", ErrInvalidParams, p.MarketFeeRate)
	}
	if p.MarketFeeRate.IsPositive() && p.FeeAddress == "" {
		return nil, fmt.Errorf("%w: market fee rate %s without fee address", ErrInvalidParams, p.MarketFeeRate)
	}
	recipient, err := tx.BuildP2PKHOutput(p.ToAddress, OrdinalSats)
	if err != nil {
		return nil, err
	}

	listingUTXO, listing, err := m.fetchListing(ctx, p.ListingTxID, p.ListingVout)
	if err != nil {
		return nil, err
	}
	payout := listing.Payout

	marketFee, err := ordlock.MarketFee(payout.Satoshis, p.MarketFeeRate)
	if err != nil {
		return nil, err
	}
	var feeOutput *transaction.TransactionOutput
	if marketFee > 0 {
		if feeOutput, err = tx.BuildP2PKHOutput(p.FeeAddress, marketFee); err != nil {
			return nil, err
		}
	}

	price, err := tx.AddAmounts(payout.Satoshis, marketFee)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	need, err := tx.AddAmounts(price, PurchaseFixedSats)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	payments, err := m.selectPayment(ctx, payer, p.PayerKey, need)
	if err != nil {
		return nil, err
	}
	total := tx.SumAmounts(payments)

	draft := transaction.NewTransaction()
	if err := tx.AddInput(draft, listingUTXO); err != nil {
		return nil, err
	}
	for _, u := range payments {
		if err := tx.AddInput(draft, u); err != nil {
			return nil, err
		}
	}
	draft.AddOutput(recipient)
	draft.AddOutput(payout.TxOutput())
	if err := addChange(draft, changeAddr, total, price, PurchaseFixedSats); err != nil {
		return nil, err
	}
	if feeOutput != nil {
		draft.AddOutput(feeOutput)
	}

	unlock, err := ordlock.BuildBuyUnlock(listingUTXO, draft, 0)
	if err != nil {
		return nil, err
	}
	draft.Inputs[0].UnlockingScript = unlock
	if err := tx.SignInputs(draft, append([]*tx.UTXO{nil}, payments...)); err != nil {
		return nil, err
	}
	if err := ordlock.VerifyPurchase(script.NewFromBytes(listingUTXO.ScriptPubKey), draft, 0); err != nil {
		return nil, err
	}

	res := newResult(draft)
	log.Debugf("Buy listing %s for %d sat (market fee %d) in %s",
		listingUTXO, payout.Satoshis, marketFee, res.TxID)
	return res, nil
}

// fetchListing loads an unspent listing and parses its lock. A spent
// listing is reported as both ErrAlreadySpent and ordlock.ErrMalformedListing.
func (m *Market) fetchListing(ctx context.Context, txid string, vout uint32) (*tx.UTXO, *ordlock.Listing, error) {
	u, err := m.fetchUnspent(ctx, txid, vout)
	if errors.Is(err, ErrAlreadySpent) {
		return nil, nil, fmt.Errorf("%w: %w", ordlock.ErrMalformedListing, err)
	}
	if err != nil {
		return nil, nil, err
	}
	listing, err := ordlock.ParseListingScript(script.NewFromBytes(u.ScriptPubKey))
	if err != nil {
		return nil, nil, err
	}
	return u, listing, nil
}
