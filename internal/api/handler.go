// Package api exposes the pool engine over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pairSwap/internal/derive"
	"pairSwap/internal/engine"
	"pairSwap/internal/model"
)

// Engine is the subset of the pool engine served over HTTP.
type Engine interface {
	InitializePool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolInitialized, error)
	AddLiquidity(ctx context.Context, req engine.AddLiquidityRequest) (model.LiquidityAdded, error)
	RemoveLiquidity(ctx context.Context, req engine.RemoveLiquidityRequest) (model.LiquidityRemoved, error)
	Swap(ctx context.Context, req engine.SwapRequest) (model.SwapExecuted, error)
	Pool(ctx context.Context, tokenA, tokenB common.Address) (model.PoolView, error)
	PoolByAddress(ctx context.Context, address common.Address) (model.PoolView, error)
	Pools(ctx context.Context) ([]model.PoolView, error)
	Balance(ctx context.Context, owner, mint common.Address) (uint64, error)
	QuoteSwap(ctx context.Context, tokenA, tokenB common.Address, amountIn uint64, isAToB bool) (uint64, error)
	QuoteAddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB uint64) (uint64, error)
	QuoteRemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, shares uint64) (uint64, uint64, error)
}

// Handler serves pool routes.
type Handler struct {
	engine Engine
	logger *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(e Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: e, logger: logger}
}

// RegisterRoutes registers all pool routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/pools", h.handleInitializePool).Methods(http.MethodPost)
	v1.HandleFunc("/pools", h.handleListPools).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{address}", h.handleGetPoolByAddress).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}", h.handleGetPool).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/add-liquidity", h.handleAddLiquidity).Methods(http.MethodPost)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/remove-liquidity", h.handleRemoveLiquidity).Methods(http.MethodPost)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/swap", h.handleSwap).Methods(http.MethodPost)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/quote", h.handleQuote).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/quote-add", h.handleQuoteAdd).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{tokenA}/{tokenB}/quote-remove", h.handleQuoteRemove).Methods(http.MethodGet)
	v1.HandleFunc("/balances/{owner}/{mint}", h.handleBalance).Methods(http.MethodGet)
}

// Request/Response types

type InitializePoolRequest struct {
	TokenA common.Address `json:"token_a"`
	TokenB common.Address `json:"token_b"`
}

type AddLiquidityRequest struct {
	User           common.Address `json:"user"`
	AmountA        uint64         `json:"amount_a,string"`
	AmountB        uint64         `json:"amount_b,string"`
	MinLPTokensOut uint64         `json:"min_lp_tokens_out,string"`
}

type RemoveLiquidityRequest struct {
	User          common.Address `json:"user"`
	LPTokenAmount uint64         `json:"lp_token_amount,string"`
	MinAmountA    uint64         `json:"min_amount_a,string"`
	MinAmountB    uint64         `json:"min_amount_b,string"`
}

type SwapRequest struct {
	User         common.Address `json:"user"`
	AmountIn     uint64         `json:"amount_in,string"`
	MinAmountOut uint64         `json:"min_amount_out,string"`
	IsAToB       bool           `json:"is_a_to_b"`
}

type QuoteResponse struct {
	AmountIn  uint64 `json:"amount_in,string"`
	AmountOut uint64 `json:"amount_out,string"`
	IsAToB    bool   `json:"is_a_to_b"`
}

type QuoteAddResponse struct {
	AmountA  uint64 `json:"amount_a,string"`
	AmountB  uint64 `json:"amount_b,string"`
	LPTokens uint64 `json:"lp_tokens,string"`
}

type QuoteRemoveResponse struct {
	LPTokenAmount uint64 `json:"lp_token_amount,string"`
	AmountA       uint64 `json:"amount_a,string"`
	AmountB       uint64 `json:"amount_b,string"`
}

type BalanceResponse struct {
	Owner   common.Address `json:"owner"`
	Mint    common.Address `json:"mint"`
	Balance uint64         `json:"balance,string"`
}

type ErrorResponse struct {
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace,omitempty"`
	Error     string `json:"error"`
}

func (h *Handler) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req InitializePoolRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.engine.InitializePool(r.Context(), req.TokenA, req.TokenB)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ev)
}

func (h *Handler) handleListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.engine.Pools(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"pools": pools})
}

func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	pool, err := h.engine.Pool(r.Context(), tokenA, tokenB)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pool)
}

func (h *Handler) handleGetPoolByAddress(w http.ResponseWriter, r *http.Request) {
	address, err := derive.ParseIdentity(mux.Vars(r)["address"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	pool, err := h.engine.PoolByAddress(r.Context(), address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pool)
}

func (h *Handler) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	var req AddLiquidityRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.engine.AddLiquidity(r.Context(), engine.AddLiquidityRequest{
		User:           req.User,
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountA:        req.AmountA,
		AmountB:        req.AmountB,
		MinLPTokensOut: req.MinLPTokensOut,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	var req RemoveLiquidityRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.engine.RemoveLiquidity(r.Context(), engine.RemoveLiquidityRequest{
		User:          req.User,
		TokenA:        tokenA,
		TokenB:        tokenB,
		LPTokenAmount: req.LPTokenAmount,
		MinAmountA:    req.MinAmountA,
		MinAmountB:    req.MinAmountB,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleSwap(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	var req SwapRequest
	if !h.decode(w, r, &req) {
		return
	}
	ev, err := h.engine.Swap(r.Context(), engine.SwapRequest{
		User:         req.User,
		TokenA:       tokenA,
		TokenB:       tokenB,
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
		IsAToB:       req.IsAToB,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	amountIn, err := queryAmount(r, "amount_in")
	if err != nil {
		h.writeError(w, err)
		return
	}
	isAToB := true
	if raw := query.Get("is_a_to_b"); raw != "" {
		if isAToB, err = strconv.ParseBool(raw); err != nil {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "is_a_to_b: " + err.Error()})
			return
		}
	}
	out, err := h.engine.QuoteSwap(r.Context(), tokenA, tokenB, amountIn, isAToB)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, QuoteResponse{AmountIn: amountIn, AmountOut: out, IsAToB: isAToB})
}

func (h *Handler) handleQuoteAdd(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	amountA, err := queryAmount(r, "amount_a")
	if err != nil {
		h.writeError(w, err)
		return
	}
	amountB, err := queryAmount(r, "amount_b")
	if err != nil {
		h.writeError(w, err)
		return
	}
	shares, err := h.engine.QuoteAddLiquidity(r.Context(), tokenA, tokenB, amountA, amountB)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, QuoteAddResponse{AmountA: amountA, AmountB: amountB, LPTokens: shares})
}

func (h *Handler) handleQuoteRemove(w http.ResponseWriter, r *http.Request) {
	tokenA, tokenB, ok := h.pair(w, r)
	if !ok {
		return
	}
	shares, err := queryAmount(r, "lp_token_amount")
	if err != nil {
		h.writeError(w, err)
		return
	}
	amountA, amountB, err := h.engine.QuoteRemoveLiquidity(r.Context(), tokenA, tokenB, shares)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, QuoteRemoveResponse{LPTokenAmount: shares, AmountA: amountA, AmountB: amountB})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	owner, err := derive.ParseIdentity(vars["owner"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	mint, err := derive.ParseIdentity(vars["mint"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	balance, err := h.engine.Balance(r.Context(), owner, mint)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, BalanceResponse{Owner: owner, Mint: mint, Balance: balance})
}

// Helper methods

func (h *Handler) pair(w http.ResponseWriter, r *http.Request) (common.Address, common.Address, bool) {
	vars := mux.Vars(r)
	tokenA, err := derive.ParseIdentity(vars["tokenA"])
	if err != nil {
		h.writeError(w, err)
		return common.Address{}, common.Address{}, false
	}
	tokenB, err := derive.ParseIdentity(vars["tokenB"])
	if err != nil {
		h.writeError(w, err)
		return common.Address{}, common.Address{}, false
	}
	return tokenA, tokenB, true
}

func queryAmount(r *http.Request, name string) (uint64, error) {
	amount, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, model.ErrInvalidAmount.Wrapf("%s: %v", name, err)
	}
	return amount, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, body)
}
