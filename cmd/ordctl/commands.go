package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libord-go/inscription"
	"github.com/bitfsorg/libord-go/market"
)

var (
	payerWIF string
	ownerWIF string

	txid          string
	vout          uint32
	toAddress     string
	changeAddress string

	rawTxHex    string
	dataFile    string
	contentType string
	metaPairs   []string

	payoutAddress string
	price         uint64

	feeAddress string
	feeRate    string
)

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Pay for a raw transaction from the payer's address",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hex.DecodeString(strings.TrimSpace(rawTxHex))
		if err != nil {
			return fmt.Errorf("decode --rawtx: %w", err)
		}
		payer, err := parseKey(payerWIF, "payer-wif")
		if err != nil {
			return err
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.FundRaw(ctx, raw, payer)
		})
	},
}

var inscribeCmd = &cobra.Command{
	Use:   "inscribe",
	Short: "Inscribe a file onto a new 1 sat output",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(dataFile)
		if err != nil {
			return err
		}
		payer, err := parseKey(payerWIF, "payer-wif")
		if err != nil {
			return err
		}
		meta, err := parseMetadata(metaPairs)
		if err != nil {
			return err
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.Inscribe(ctx, market.InscribeParams{
				Data:      data,
				MediaType: contentType,
				Metadata:  meta,
				ToAddress: toAddress,
				PayerKey:  payer,
			})
		})
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Send an ordinal to another address",
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, owner, err := parseKeys()
		if err != nil {
			return err
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.Transfer(ctx, market.TransferParams{
				TxID:      txid,
				Vout:      vout,
				OwnerKey:  owner,
				PayerKey:  payer,
				ToAddress: toAddress,
			})
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List an ordinal for sale behind an ordinal lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, owner, err := parseKeys()
		if err != nil {
			return err
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.List(ctx, market.ListParams{
				TxID:          txid,
				Vout:          vout,
				OwnerKey:      owner,
				PayerKey:      payer,
				PayoutAddress: payoutAddress,
				PayoutSats:    price,
			})
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a listing and return the ordinal",
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, owner, err := parseKeys()
		if err != nil {
			return err
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.Cancel(ctx, market.CancelParams{
				ListingTxID:   txid,
				ListingVout:   vout,
				OwnerKey:      owner,
				PayerKey:      payer,
				ToAddress:     toAddress,
				ChangeAddress: changeAddress,
			})
		})
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy a listed ordinal",
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, err := parseKey(payerWIF, "payer-wif")
		if err != nil {
			return err
		}
		rate, err := cfg.MarketFee()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("fee-rate") {
			if rate, err = decimal.NewFromString(feeRate); err != nil {
				return fmt.Errorf("parse --fee-rate: %w", err)
			}
		} else if feeAddress == "" {
			rate = decimal.Zero
		}
		return emit(cmd.Context(), func(ctx context.Context) (*market.Result, error) {
			return mkt.Buy(ctx, market.BuyParams{
				ListingTxID:   txid,
				ListingVout:   vout,
				PayerKey:      payer,
				ToAddress:     toAddress,
				ChangeAddress: changeAddress,
				FeeAddress:    feeAddress,
				MarketFeeRate: rate,
			})
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{fundCmd, inscribeCmd, transferCmd, listCmd, cancelCmd, buyCmd} {
		c.Flags().StringVar(&payerWIF, "payer-wif", "", "WIF of the key paying fees (or ORD_PAYER_WIF)")
	}
	for _, c := range []*cobra.Command{transferCmd, listCmd, cancelCmd} {
		c.Flags().StringVar(&ownerWIF, "owner-wif", "", "WIF of the ordinal owner (or ORD_OWNER_WIF)")
	}
	for _, c := range []*cobra.Command{transferCmd, listCmd, cancelCmd, buyCmd} {
		c.Flags().StringVar(&txid, "txid", "", "transaction holding the ordinal or listing")
		c.Flags().Uint32Var(&vout, "vout", 0, "output index of the ordinal or listing")
		mustMarkRequired(c, "txid")
	}
	for _, c := range []*cobra.Command{inscribeCmd, transferCmd, cancelCmd, buyCmd} {
		c.Flags().StringVar(&toAddress, "to", "", "address receiving the ordinal")
		mustMarkRequired(c, "to")
	}
	for _, c := range []*cobra.Command{cancelCmd, buyCmd} {
		c.Flags().StringVar(&changeAddress, "change", "", "change address (default payer address)")
	}

	fundCmd.Flags().StringVar(&rawTxHex, "rawtx", "", "hex encoded transaction to fund")
	mustMarkRequired(fundCmd, "rawtx")

	inscribeCmd.Flags().StringVarP(&dataFile, "file", "f", "", "file to inscribe")
	inscribeCmd.Flags().StringVarP(&contentType, "content-type", "t", "", "media type of the file")
	inscribeCmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "MAP metadata as key=value, repeatable; needs app and type")
	mustMarkRequired(inscribeCmd, "file")
	mustMarkRequired(inscribeCmd, "content-type")

	listCmd.Flags().StringVar(&payoutAddress, "payout", "", "address paid when the listing is bought")
	listCmd.Flags().Uint64Var(&price, "price", 0, "listing price in satoshis")
	mustMarkRequired(listCmd, "payout")
	mustMarkRequired(listCmd, "price")

	buyCmd.Flags().StringVar(&feeAddress, "fee-address", "", "market fee address")
	buyCmd.Flags().StringVar(&feeRate, "fee-rate", "", "market fee rate (default marketfeerate from config)")
}

func mustMarkRequired(c *cobra.Command, name string) {
	if err := c.MarkFlagRequired(name); err != nil {
		panic(err)
	}
}

// emit runs op, prints the transaction and broadcasts it when asked.
func emit(ctx context.Context, op func(context.Context) (*market.Result, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := op(ctx)
	if err != nil {
		return err
	}
	fmt.Println(res.Hex)
	if !broadcast {
		fmt.Fprintf(os.Stderr, "txid %s (not broadcast)\n", res.TxID)
		return nil
	}
	id, err := mkt.Broadcast(ctx, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "txid %s broadcast\n", id)
	return nil
}

func parseKeys() (payer, owner *ec.PrivateKey, err error) {
	if payer, err = parseKey(payerWIF, "payer-wif"); err != nil {
		return nil, nil, err
	}
	if owner, err = parseKey(ownerWIF, "owner-wif"); err != nil {
		return nil, nil, err
	}
	return payer, owner, nil
}

// parseKey decodes a WIF given by flag or, failing that, by the
// ORD_<FLAG> environment variable.
func parseKey(wif, flag string) (*ec.PrivateKey, error) {
	if wif == "" {
		wif = os.Getenv("ORD_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_")))
	}
	if wif == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	key, err := ec.PrivateKeyFromWif(wif)
	if err != nil {
		return nil, fmt.Errorf("parse --%s: %w", flag, err)
	}
	return key, nil
}

func parseMetadata(pairs []string) (*inscription.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	kv := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("--meta %q is not key=value", p)
		}
		kv = append(kv, [2]string{k, v})
	}
	return inscription.NewMetadata(kv...)
}
