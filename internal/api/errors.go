package api

import (
	"net/http"

	errorsmod "cosmossdk.io/errors"

	"pairSwap/internal/model"
)

var statusByError = map[*errorsmod.Error]int{
	model.ErrInvalidAmount:          http.StatusBadRequest,
	model.ErrInvalidTokenPair:       http.StatusBadRequest,
	model.ErrInvalidIdentity:        http.StatusBadRequest,
	model.ErrInvalidFee:             http.StatusBadRequest,
	model.ErrPoolNotFound:           http.StatusNotFound,
	model.ErrAccountNotFound:        http.StatusNotFound,
	model.ErrMintNotFound:           http.StatusNotFound,
	model.ErrPoolAlreadyExists:      http.StatusConflict,
	model.ErrAccountExists:          http.StatusConflict,
	model.ErrUnauthorized:           http.StatusForbidden,
	model.ErrSlippageExceeded:       http.StatusUnprocessableEntity,
	model.ErrInsufficientLiquidity:  http.StatusUnprocessableEntity,
	model.ErrInitialLiquidityTooLow: http.StatusUnprocessableEntity,
	model.ErrZeroReserves:           http.StatusUnprocessableEntity,
	model.ErrInsufficientFunds:      http.StatusUnprocessableEntity,
	model.ErrMintMismatch:           http.StatusUnprocessableEntity,
	model.ErrMathOverflow:           http.StatusUnprocessableEntity,
}

// errorResponse maps an engine error to its HTTP status and body. Errors
// outside the module codespace are reported as internal without detail.
func errorResponse(err error) (int, ErrorResponse) {
	registered, ok := model.Classify(err)
	if !ok {
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
	status, ok := statusByError[registered]
	if !ok {
		status = http.StatusBadRequest
	}
	return status, ErrorResponse{
		Code:      registered.ABCICode(),
		Codespace: registered.Codespace(),
		Error:     err.Error(),
	}
}
