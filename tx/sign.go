package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// SignInputs attaches P2PKH unlockers to the inputs of sdkTx and signs them.
//
// UTXOs are matched to inputs by position (utxos[i] signs input i). A nil
// entry leaves that input untouched, which is how inputs carrying a
// hand-built unlocking script (for example an ordinal-lock spend) are mixed
// with ordinary P2PKH inputs in one transaction. The slice may be shorter
// than the input list; trailing inputs are then left untouched as well.
func SignInputs(sdkTx *transaction.Transaction, utxos []*UTXO) error {
	if sdkTx == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if len(utxos) > len(sdkTx.Inputs) {
		return fmt.Errorf("%w: have %d UTXOs but tx has %d inputs",
			ErrSigningFailed, len(utxos), len(sdkTx.Inputs))
	}

	signable := 0
	for i, utxo := range utxos {
		if utxo == nil {
			continue
		}
		if utxo.PrivateKey == nil {
			return fmt.Errorf("%w: utxo[%d] has nil PrivateKey", ErrSigningFailed, i)
		}
		if len(utxo.ScriptPubKey) == 0 {
			return fmt.Errorf("%w: utxo[%d] has empty ScriptPubKey", ErrSigningFailed, i)
		}

		unlocker, err := p2pkh.Unlock(utxo.PrivateKey, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to create unlocker for input %d: %w",
				ErrSigningFailed, i, err)
		}

		// The source output is needed for the sighash.
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      utxo.Amount,
			LockingScript: script.NewFromBytes(utxo.ScriptPubKey),
		})
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
		signable++
	}
	if signable == 0 {
		return fmt.Errorf("%w: no signable inputs", ErrSigningFailed)
	}

	if err := sdkTx.Sign(); err != nil {
		return fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return nil
}

// BuildP2PKHScript creates a P2PKH locking script for the given public key.
// Returns the raw script bytes suitable for use as UTXO.ScriptPubKey.
func BuildP2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pubKey, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock script: %w", ErrScriptBuild, err)
	}
	return []byte(*lockScript), nil
}

// P2PKHScriptForAddress decodes a base58 address and returns its P2PKH locking script.
func P2PKHScriptForAddress(address string) (*script.Script, error) {
	addr, err := script.NewAddressFromString(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, address, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return lockScript, nil
}

// PubKeyHashForAddress returns the 20-byte public key hash encoded in address.
func PubKeyHashForAddress(address string) ([]byte, error) {
	addr, err := script.NewAddressFromString(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, address, err)
	}
	return []byte(addr.PublicKeyHash), nil
}

// AddressForKey returns the P2PKH address string of key's compressed public key.
func AddressForKey(key *ec.PrivateKey, mainnet bool) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: private key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(key.PubKey(), mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: address from pubkey: %w", ErrScriptBuild, err)
	}
	return addr.AddressString, nil
}

// BuildP2PKHOutput creates a TransactionOutput with a P2PKH locking script
// for the given address and satoshi amount.
func BuildP2PKHOutput(address string, satoshis uint64) (*transaction.TransactionOutput, error) {
	lockScript, err := P2PKHScriptForAddress(address)
	if err != nil {
		return nil, err
	}
	return &transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: lockScript,
	}, nil
}
