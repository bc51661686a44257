package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"liquidityCore/internal/pricing"
)

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap output against given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")

	return quoteCmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, err := flagAmount(cmd, "amount-in")
	if err != nil {
		return err
	}
	reserveIn, err := flagAmount(cmd, "reserve-in")
	if err != nil {
		return err
	}
	reserveOut, err := flagAmount(cmd, "reserve-out")
	if err != nil {
		return err
	}

	out, err := pricing.SwapOutput(amountIn, reserveIn, reserveOut)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}

func flagAmount(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return value, nil
}
