package market

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/libord-go/inscription"
	"github.com/bitfsorg/libord-go/ordlock"
	"github.com/bitfsorg/libord-go/tx"
)

// OrdinalSats is the value of every output carrying an inscription or listing.
const OrdinalSats = uint64(1)

// InscribeParams describes a new inscription.
type InscribeParams struct {
	Data      []byte
	MediaType string
	Metadata  *inscription.Metadata // optional
	ToAddress string
	PayerKey  *ec.PrivateKey
}

// Inscribe creates a 1 sat inscription output to ToAddress and funds it
// from PayerKey.
func (m *Market) Inscribe(ctx context.Context, p InscribeParams) (*Result, error) {
	if p.MediaType == "" {
		return nil, fmt.Errorf("%w: media type", ErrInvalidParams)
	}
	lock, err := inscription.BuildInscriptionScript(p.ToAddress, p.Data, p.MediaType, p.Metadata)
	if err != nil {
		return nil, err
	}

	draft := transaction.NewTransaction()
	draft.AddOutput(&transaction.TransactionOutput{Satoshis: OrdinalSats, LockingScript: lock})
	return m.Fund(ctx, draft, p.PayerKey)
}

// TransferParams names an ordinal and its new owner.
type TransferParams struct {
	TxID      string
	Vout      uint32
	OwnerKey  *ec.PrivateKey
	PayerKey  *ec.PrivateKey
	ToAddress string
}

// Transfer spends the ordinal at TxID:Vout to ToAddress. Outputs are
// [ToAddress 1 sat, payer change]; the ordinal is input 0 and payer coins
// follow it.
func (m *Market) Transfer(ctx context.Context, p TransferParams) (*Result, error) {
	if p.OwnerKey == nil {
		return nil, fmt.Errorf("%w: owner key", ErrInvalidParams)
	}
	payer, err := m.payerAddress(p.PayerKey, "payer")
	if err != nil {
		return nil, err
	}
	recipient, err := tx.BuildP2PKHOutput(p.ToAddress, OrdinalSats)
	if err != nil {
		return nil, err
	}

	ord, err := m.fetchUnspent(ctx, p.TxID, p.Vout)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ord, p.OwnerKey); err != nil {
		return nil, err
	}
	ord.PrivateKey = p.OwnerKey

	draft := transaction.NewTransaction()
	if err := tx.AddInput(draft, ord); err != nil {
		return nil, err
	}
	draft.AddOutput(recipient)

	res, err := m.payWithChange(ctx, draft, ord, p.PayerKey, payer)
	if err != nil {
		return nil, err
	}
	log.Debugf("Transfer %s to %s in %s", ord, p.ToAddress, res.TxID)
	return res, nil
}

// ListParams describes a listing of an owned ordinal.
type ListParams struct {
	TxID          string
	Vout          uint32
	OwnerKey      *ec.PrivateKey
	PayerKey      *ec.PrivateKey
	PayoutAddress string
	PayoutSats    uint64
}

// List moves the ordinal at TxID:Vout behind an ordinal lock that pays
// PayoutSats to PayoutAddress when bought and lets OwnerKey cancel.
// Outputs are [listing 1 sat, payer change].
func (m *Market) List(ctx context.Context, p ListParams) (*Result, error) {
	if p.OwnerKey == nil {
		return nil, fmt.Errorf("%w: owner key", ErrInvalidParams)
	}
	if p.PayoutSats == 0 || p.PayoutSats > tx.MaxSatoshis {
		return nil, fmt.Errorf("%w: payout must be between 1 and %d sat", ErrInvalidParams, tx.MaxSatoshis)
	}
	payer, err := m.payerAddress(p.PayerKey, "payer")
	if err != nil {
		return nil, err
	}
	payout, err := ordlock.NewPayoutOutput(p.PayoutAddress, p.PayoutSats)
	if err != nil {
		return nil, err
	}
	lock, err := ordlock.BuildListingScript(p.OwnerKey.PubKey().Hash(), payout)
	if err != nil {
		return nil, err
	}

	ord, err := m.fetchUnspent(ctx, p.TxID, p.Vout)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ord, p.OwnerKey); err != nil {
		return nil, err
	}
	ord.PrivateKey = p.OwnerKey

	draft := transaction.NewTransaction()
	if err := tx.AddInput(draft, ord); err != nil {
		return nil, err
	}
	draft.AddOutput(&transaction.TransactionOutput{Satoshis: OrdinalSats, LockingScript: lock})

	res, err := m.payWithChange(ctx, draft, ord, p.PayerKey, payer)
	if err != nil {
		return nil, err
	}
	log.Debugf("List %s for %d sat to %s in %s", ord, p.PayoutSats, p.PayoutAddress, res.TxID)
	return res, nil
}

// payWithChange funds a draft whose input 0 is ord and whose outputs are
// final except for change. Payer coins are appended as inputs, a change
// output to changeAddr is added, and every input is signed with a standard
// P2PKH signature.
func (m *Market) payWithChange(ctx context.Context, draft *transaction.Transaction, ord *tx.UTXO,
	payerKey *ec.PrivateKey, changeAddr string) (*Result, error) {

	payments, fee, err := m.addPayment(ctx, draft, ord.Amount, payerKey, changeAddr)
	if err != nil {
		return nil, err
	}
	if err := tx.SignInputs(draft, append([]*tx.UTXO{ord}, payments...)); err != nil {
		return nil, err
	}
	res := newResult(draft)
	log.Tracef("Paid %s: fee %d from %d payer inputs", res.TxID, fee, len(payments))
	return res, nil
}

// addPayment estimates the fee of draft with a change output, selects
// payer coins covering the outputs and fee not already covered by
// existing, and appends them followed by the change output.
func (m *Market) addPayment(ctx context.Context, draft *transaction.Transaction, existing uint64,
	payerKey *ec.PrivateKey, changeAddr string) ([]*tx.UTXO, uint64, error) {

	payer, err := m.payerAddress(payerKey, "payer")
	if err != nil {
		return nil, 0, err
	}

	// Size the draft as it will look once change is added.
	placeholder, err := tx.BuildP2PKHOutput(changeAddr, 0)
	if err != nil {
		return nil, 0, err
	}
	draft.AddOutput(placeholder)
	fee := tx.EstimateFee(draft, m.feePerKB)
	draft.Outputs = draft.Outputs[:len(draft.Outputs)-1]

	outputs, err := outputTotal(draft)
	if err != nil {
		return nil, 0, err
	}
	spent, err := tx.AddAmounts(outputs, fee)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	need := fee
	if spent > existing {
		need = spent - existing
	}

	payments, err := m.selectPayment(ctx, payer, payerKey, need)
	if err != nil {
		return nil, 0, err
	}
	for _, u := range payments {
		if err := tx.AddInput(draft, u); err != nil {
			return nil, 0, err
		}
	}
	in, err := tx.AddAmounts(existing, tx.SumAmounts(payments))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	if err := addChange(draft, changeAddr, in, outputs, fee); err != nil {
		return nil, 0, err
	}
	return payments, fee, nil
}
