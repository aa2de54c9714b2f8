package model

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace groups every error registered by this module.
const Codespace = "pairswap"

// Engine errors. Codes follow the on-chain program numbering.
var (
	ErrMathOverflow           = errorsmod.Register(Codespace, 6000, "math overflow")
	ErrInvalidTokenPair       = errorsmod.Register(Codespace, 6001, "invalid token pair: mints must differ")
	ErrInvalidAmount          = errorsmod.Register(Codespace, 6002, "amount cannot be zero")
	ErrSlippageExceeded       = errorsmod.Register(Codespace, 6003, "slippage tolerance exceeded")
	ErrInsufficientLiquidity  = errorsmod.Register(Codespace, 6004, "insufficient liquidity")
	ErrInvalidFee             = errorsmod.Register(Codespace, 6005, "fee cannot exceed 100%")
	ErrInitialLiquidityTooLow = errorsmod.Register(Codespace, 6006, "initial liquidity below minimum")
	ErrZeroReserves           = errorsmod.Register(Codespace, 6007, "pool reserves are zero")
)

// Lifecycle errors.
var (
	ErrPoolNotFound      = errorsmod.Register(Codespace, 6100, "pool not found")
	ErrPoolAlreadyExists = errorsmod.Register(Codespace, 6101, "pool already exists")
	ErrInvalidIdentity   = errorsmod.Register(Codespace, 6102, "invalid identity")
)

// Custody errors.
var (
	ErrInsufficientFunds = errorsmod.Register(Codespace, 6200, "insufficient funds")
	ErrUnauthorized      = errorsmod.Register(Codespace, 6201, "signer is not authorized")
	ErrAccountNotFound   = errorsmod.Register(Codespace, 6202, "token account not found")
	ErrMintMismatch      = errorsmod.Register(Codespace, 6203, "token account mint mismatch")
	ErrAccountExists     = errorsmod.Register(Codespace, 6204, "account already exists")
	ErrMintNotFound      = errorsmod.Register(Codespace, 6205, "mint not found")
)

// Classify returns the registered error behind err when it belongs to this
// module's codespace.
func Classify(err error) (*errorsmod.Error, bool) {
	var target *errorsmod.Error
	if errors.As(err, &target) && target.Codespace() == Codespace {
		return target, true
	}
	return nil, false
}
