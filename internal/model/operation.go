package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Operation kinds accepted by replay input.
const (
	OpFund            = "fund"
	OpInitialize      = "initialize"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
)

// Operation is one line of a replay log.
type Operation struct {
	Seq            uint64         `json:"seq"`
	Op             string         `json:"op"`
	User           common.Address `json:"user"`
	TokenA         common.Address `json:"token_a"`
	TokenB         common.Address `json:"token_b"`
	AmountA        uint64         `json:"amount_a,string,omitempty"`
	AmountB        uint64         `json:"amount_b,string,omitempty"`
	MinLPTokensOut uint64         `json:"min_lp_tokens_out,string,omitempty"`
	LPTokenAmount  uint64         `json:"lp_token_amount,string,omitempty"`
	MinAmountA     uint64         `json:"min_amount_a,string,omitempty"`
	MinAmountB     uint64         `json:"min_amount_b,string,omitempty"`
	AmountIn       uint64         `json:"amount_in,string,omitempty"`
	MinAmountOut   uint64         `json:"min_amount_out,string,omitempty"`
	IsAToB         bool           `json:"is_a_to_b,omitempty"`
	Mint           common.Address `json:"mint,omitempty"`
	Authority      common.Address `json:"authority,omitempty"`
	Amount         uint64         `json:"amount,string,omitempty"`
}

// Validate checks that the operation names a known kind and carries its identities.
func (o Operation) Validate() error {
	switch o.Op {
	case OpFund:
		if o.User == (common.Address{}) || o.Mint == (common.Address{}) {
			return fmt.Errorf("seq %d: fund requires user and mint", o.Seq)
		}
	case OpInitialize, OpAddLiquidity, OpRemoveLiquidity, OpSwap:
		if o.TokenA == (common.Address{}) || o.TokenB == (common.Address{}) {
			return fmt.Errorf("seq %d: %s requires token_a and token_b", o.Seq, o.Op)
		}
		if o.Op != OpInitialize && o.User == (common.Address{}) {
			return fmt.Errorf("seq %d: %s requires user", o.Seq, o.Op)
		}
	default:
		return fmt.Errorf("seq %d: unknown op %q", o.Seq, o.Op)
	}
	return nil
}

// PairKey identifies the unordered token pair an operation touches.
// Fund operations have no pair and return an empty key.
func (o Operation) PairKey() string {
	if o.Op == OpFund {
		return ""
	}
	a, b := strings.ToLower(o.TokenA.Hex()), strings.ToLower(o.TokenB.Hex())
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}
