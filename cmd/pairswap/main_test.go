package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/amm"
	"pairSwap/internal/derive"
	"pairSwap/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	out, err := execute(t, "quote", "--reserve-in", "10", "--reserve-out", "10", "--amount-in", "0.1", "--decimals", "2")
	require.NoError(t, err)

	var got quoteOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "0.1", got.AmountIn)
	require.Equal(t, "0.09", got.AmountOut)
	require.Equal(t, amm.DefaultFeeNumerator, got.FeeNumerator)
}

func TestQuoteCommandRejects(t *testing.T) {
	_, err := execute(t, "quote", "--reserve-in", "10", "--reserve-out", "10", "--amount-in", "0.001", "--decimals", "2")
	require.Error(t, err)

	_, err = execute(t, "quote", "--reserve-in", "10", "--reserve-out", "10", "--amount-in", "1", "--fee", "10001")
	require.Error(t, err)

	_, err = execute(t, "quote", "--reserve-in", "10", "--amount-in", "1")
	require.ErrorContains(t, err, "reserve-out")

	out, err := execute(t, "quote", "--reserve-in", "10", "--reserve-out", "10", "--amount-in", "0")
	require.ErrorIs(t, err, model.ErrInvalidAmount)
	require.Empty(t, out)
}

func TestDeriveCommand(t *testing.T) {
	tokenA := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	out, err := execute(t, "derive", "--token-a", tokenA.Hex(), "--token-b", tokenB.Hex())
	require.NoError(t, err)

	var got derive.PoolAccounts
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	want, err := derive.NewDeriver(derive.DefaultProgramID).PoolAccounts(tokenA, tokenB)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = execute(t, "derive", "--token-a", "nothex", "--token-b", tokenB.Hex())
	require.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "CREATE TABLE IF NOT EXISTS pools"))
}
