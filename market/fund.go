package market

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/libord-go/tx"
)

// Fund pays for draft from payerKey's address: it estimates the fee,
// selects payer coins covering the outputs plus fee, adds a change output
// back to the payer and signs the payer inputs. draft is modified in place.
//
// Inputs already present in draft count towards the outputs when their
// source output is attached; they are not signed here.
func (m *Market) Fund(ctx context.Context, draft *transaction.Transaction, payerKey *ec.PrivateKey) (*Result, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: draft", ErrInvalidParams)
	}
	payer, err := m.payerAddress(payerKey, "payer")
	if err != nil {
		return nil, err
	}

	outputs, err := outputTotal(draft)
	if err != nil {
		return nil, err
	}
	var existing uint64
	for _, in := range draft.Inputs {
		if src := in.SourceTxOutput(); src != nil {
			if existing, err = tx.AddAmounts(existing, src.Satoshis); err != nil {
				return nil, fmt.Errorf("%w: draft inputs: %w", ErrInvalidParams, err)
			}
		}
	}
	fee := tx.EstimateFee(draft, m.feePerKB)

	spent, err := tx.AddAmounts(outputs, fee)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	var need uint64
	if spent > existing {
		need = spent - existing
	}
	if need == 0 {
		return nil, fmt.Errorf("%w: draft needs no funding", ErrInvalidParams)
	}

	payments, err := m.selectPayment(ctx, payer, payerKey, need)
	if err != nil {
		return nil, err
	}

	signers := make([]*tx.UTXO, len(draft.Inputs), len(draft.Inputs)+len(payments))
	for _, u := range payments {
		if err := tx.AddInput(draft, u); err != nil {
			return nil, err
		}
		signers = append(signers, u)
	}
	in, err := tx.AddAmounts(existing, tx.SumAmounts(payments))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := addChange(draft, payer, in, outputs, fee); err != nil {
		return nil, err
	}
	if err := tx.SignInputs(draft, signers); err != nil {
		return nil, err
	}

	res := newResult(draft)
	log.Debugf("Funded %s: %d payer inputs, fee %d", res.TxID, len(payments), fee)
	return res, nil
}

// outputTotal sums the outputs of draft. A total beyond the money supply
// can never be funded.
func outputTotal(draft *transaction.Transaction) (uint64, error) {
	var total uint64
	for _, o := range draft.Outputs {
		var err error
		if total, err = tx.AddAmounts(total, o.Satoshis); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
		}
	}
	return total, nil
}

// FundRaw is Fund over a serialized draft.
func (m *Market) FundRaw(ctx context.Context, rawTx []byte, payerKey *ec.PrivateKey) (*Result, error) {
	draft, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return nil, fmt.Errorf("%w: parse draft: %w", ErrInvalidParams, err)
	}
	return m.Fund(ctx, draft, payerKey)
}
