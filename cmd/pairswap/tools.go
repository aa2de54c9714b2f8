package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pairSwap/internal/amm"
	"pairSwap/internal/derive"
	"pairSwap/internal/storage/postgres"
	"pairSwap/internal/units"
)

func runDerive(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	rawA, _ := flags.GetString("token-a")
	rawB, _ := flags.GetString("token-b")
	rawProgram, _ := flags.GetString("program-id")

	tokenA, err := parseAddress("token-a", rawA)
	if err != nil {
		return err
	}
	tokenB, err := parseAddress("token-b", rawB)
	if err != nil {
		return err
	}
	programID := derive.DefaultProgramID
	if rawProgram != "" {
		if programID, err = parseAddress("program-id", rawProgram); err != nil {
			return err
		}
	}

	accounts, err := derive.NewDeriver(programID).PoolAccounts(tokenA, tokenB)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(accounts)
}

type quoteOutput struct {
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	FeeNumerator uint64 `json:"fee_numerator"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	fee, _ := flags.GetUint64("fee")
	decimals, _ := flags.GetInt32("decimals")

	amounts := make(map[string]uint64, 3)
	for _, name := range []string{"reserve-in", "reserve-out", "amount-in"} {
		raw, _ := flags.GetString(name)
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		v, err := units.ParseAmount(raw, decimals)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		amounts[name] = v
	}

	if err := amm.ValidateFee(fee); err != nil {
		return err
	}
	out, err := amm.SwapOut(amounts["amount-in"], amounts["reserve-in"], amounts["reserve-out"], fee)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quoteOutput{
		AmountIn:     units.FormatAmount(amounts["amount-in"], decimals),
		AmountOut:    units.FormatAmount(out, decimals),
		FeeNumerator: fee,
	})
}

func runSchema(cmd *cobra.Command, _ []string) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema)
	return err
}
