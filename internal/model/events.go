package model

import "github.com/ethereum/go-ethereum/common"

// Event names as they appear in event records.
const (
	EventPoolInitialized  = "PoolInitialized"
	EventLiquidityAdded   = "LiquidityAdded"
	EventLiquidityRemoved = "LiquidityRemoved"
	EventSwapExecuted     = "SwapExecuted"
)

// Event is implemented by every engine notification payload.
type Event interface {
	EventName() string
	PoolAddress() common.Address
}

// PoolInitialized is emitted once when a pool's containers are provisioned.
type PoolInitialized struct {
	Pool        common.Address `json:"pool"`
	TokenAMint  common.Address `json:"token_a_mint"`
	TokenBMint  common.Address `json:"token_b_mint"`
	LPTokenMint common.Address `json:"lp_token_mint"`
}

// LiquidityAdded is emitted after a deposit commits.
type LiquidityAdded struct {
	Pool     common.Address `json:"pool"`
	User     common.Address `json:"user"`
	AmountA  uint64         `json:"amount_a,string"`
	AmountB  uint64         `json:"amount_b,string"`
	LPTokens uint64         `json:"lp_tokens,string"`
}

// LiquidityRemoved is emitted after a withdrawal commits.
type LiquidityRemoved struct {
	Pool           common.Address `json:"pool"`
	User           common.Address `json:"user"`
	AmountA        uint64         `json:"amount_a,string"`
	AmountB        uint64         `json:"amount_b,string"`
	LPTokensBurned uint64         `json:"lp_tokens_burned,string"`
}

// SwapExecuted is emitted after a swap commits.
type SwapExecuted struct {
	Pool      common.Address `json:"pool"`
	User      common.Address `json:"user"`
	AmountIn  uint64         `json:"amount_in,string"`
	AmountOut uint64         `json:"amount_out,string"`
	IsAToB    bool           `json:"is_a_to_b"`
}

func (e PoolInitialized) EventName() string          { return EventPoolInitialized }
func (e PoolInitialized) PoolAddress() common.Address { return e.Pool }

func (e LiquidityAdded) EventName() string          { return EventLiquidityAdded }
func (e LiquidityAdded) PoolAddress() common.Address { return e.Pool }

func (e LiquidityRemoved) EventName() string          { return EventLiquidityRemoved }
func (e LiquidityRemoved) PoolAddress() common.Address { return e.Pool }

func (e SwapExecuted) EventName() string          { return EventSwapExecuted }
func (e SwapExecuted) PoolAddress() common.Address { return e.Pool }
