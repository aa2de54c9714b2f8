package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"pairSwap/internal/engine"
	"pairSwap/internal/metrics"
	"pairSwap/internal/model"
	"pairSwap/internal/storage/memory"
)

var (
	mintA  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	mintB  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	issuer = common.HexToAddress("0x1550e51550e51550e51550e51550e51550e51550")
	alice  = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
)

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	reg := prometheus.NewRegistry()
	e, err := engine.New(engine.DefaultConfig(), memory.New(), engine.WithMetrics(metrics.NewEngineMetrics(reg)))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, e.Fund(ctx, mintA, issuer, alice, 1_000_000_000))
	require.NoError(t, e.Fund(ctx, mintB, issuer, alice, 1_000_000_000))

	srv := httptest.NewServer(NewRouter(e, reg, nil))
	t.Cleanup(srv.Close)
	return srv, e
}

func do(t *testing.T, method, url, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPoolLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	poolURL := fmt.Sprintf("%s/v1/pools/%s/%s", srv.URL, mintA.Hex(), mintB.Hex())

	var initialized model.PoolInitialized
	body := fmt.Sprintf(`{"token_a":%q,"token_b":%q}`, mintA.Hex(), mintB.Hex())
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/v1/pools", body, &initialized))
	require.Equal(t, mintA, initialized.TokenAMint)

	var added model.LiquidityAdded
	body = fmt.Sprintf(`{"user":%q,"amount_a":"100000000","amount_b":"100000000","min_lp_tokens_out":"0"}`, alice.Hex())
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, poolURL+"/add-liquidity", body, &added))
	require.Equal(t, uint64(100_000_000), added.LPTokens)

	var quote QuoteResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, poolURL+"/quote?amount_in=1000000&is_a_to_b=true", "", &quote))
	require.NotZero(t, quote.AmountOut)

	var swapped model.SwapExecuted
	body = fmt.Sprintf(`{"user":%q,"amount_in":"1000000","min_amount_out":"%d","is_a_to_b":true}`, alice.Hex(), quote.AmountOut)
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, poolURL+"/swap", body, &swapped))
	require.Equal(t, quote.AmountOut, swapped.AmountOut)

	var pool model.PoolView
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, poolURL, "", &pool))
	require.Equal(t, uint64(101_000_000), pool.ReserveA)
	require.Equal(t, uint64(100_000_000), pool.LPSupply)

	var removed model.LiquidityRemoved
	body = fmt.Sprintf(`{"user":%q,"lp_token_amount":"50000000","min_amount_a":"0","min_amount_b":"0"}`, alice.Hex())
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, poolURL+"/remove-liquidity", body, &removed))
	require.Equal(t, uint64(50_500_000), removed.AmountA)

	var balance BalanceResponse
	url := fmt.Sprintf("%s/v1/balances/%s/%s", srv.URL, alice.Hex(), pool.LPTokenMint.Hex())
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, url, "", &balance))
	require.Equal(t, uint64(50_000_000), balance.Balance)

	var list struct {
		Pools []model.PoolView `json:"pools"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/v1/pools", "", &list))
	require.Len(t, list.Pools, 1)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	poolURL := fmt.Sprintf("%s/v1/pools/%s/%s", srv.URL, mintA.Hex(), mintB.Hex())

	var resp ErrorResponse
	require.Equal(t, http.StatusNotFound, do(t, http.MethodGet, poolURL, "", &resp))
	require.Equal(t, model.Codespace, resp.Codespace)
	require.Equal(t, model.ErrPoolNotFound.ABCICode(), resp.Code)

	body := fmt.Sprintf(`{"token_a":%q,"token_b":%q}`, mintA.Hex(), mintA.Hex())
	require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/v1/pools", body, &resp))
	require.Equal(t, model.ErrInvalidTokenPair.ABCICode(), resp.Code)

	body = fmt.Sprintf(`{"token_a":%q,"token_b":%q}`, mintA.Hex(), mintB.Hex())
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/v1/pools", body, nil))
	require.Equal(t, http.StatusConflict, do(t, http.MethodPost, srv.URL+"/v1/pools", body, &resp))

	require.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodGet, poolURL+"/quote?amount_in=10", "", &resp))
	require.Equal(t, model.ErrZeroReserves.ABCICode(), resp.Code)

	require.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, poolURL+"/quote?amount_in=-1", "", &resp))
	require.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/v1/pools/nothex/"+mintB.Hex(), "", &resp))
	require.Equal(t, model.ErrInvalidIdentity.ABCICode(), resp.Code)
	require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, poolURL+"/swap", `{"amount_in":12}`, &resp))

	body = fmt.Sprintf(`{"user":%q,"amount_a":"1","amount_b":"1"}`, alice.Hex())
	require.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodPost, poolURL+"/add-liquidity", body, &resp))
	require.Equal(t, model.ErrInitialLiquidityTooLow.ABCICode(), resp.Code)
}

func TestInternalErrorsHideDetail(t *testing.T) {
	status, body := errorResponse(fmt.Errorf("query pool: %w", errors.New("connection reset")))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal error", body.Error)

	status, body = errorResponse(fmt.Errorf("replay: %w", model.ErrUnauthorized.Wrap("vault")))
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, model.ErrUnauthorized.ABCICode(), body.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), `pairswap_engine_operations_total{op="fund",status="ok"} 2`)
}

func TestQuotesAndPoolLookupOverHTTP(t *testing.T) {
	srv, e := newTestServer(t)
	ctx := context.Background()
	initialized, err := e.InitializePool(ctx, mintA, mintB)
	require.NoError(t, err)
	_, err = e.AddLiquidity(ctx, engine.AddLiquidityRequest{User: alice, TokenA: mintA, TokenB: mintB, AmountA: 100_000_000, AmountB: 100_000_000})
	require.NoError(t, err)
	poolURL := fmt.Sprintf("%s/v1/pools/%s/%s", srv.URL, mintA.Hex(), mintB.Hex())

	var pool model.PoolView
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/v1/pools/"+initialized.Pool.Hex(), "", &pool))
	require.Equal(t, initialized.Pool, pool.Address)
	require.Equal(t, uint64(100_000_000), pool.LPSupply)

	var added QuoteAddResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, poolURL+"/quote-add?amount_a=1000000&amount_b=2000000", "", &added))
	require.Equal(t, uint64(1_000_000), added.LPTokens)
	require.Equal(t, uint64(2_000_000), added.AmountB)

	var removed QuoteRemoveResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, poolURL+"/quote-remove?lp_token_amount=50000000", "", &removed))
	require.Equal(t, uint64(50_000_000), removed.AmountA)
	require.Equal(t, uint64(50_000_000), removed.AmountB)

	var resp ErrorResponse
	require.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, poolURL+"/quote-remove?lp_token_amount=lots", "", &resp))
	require.Equal(t, model.ErrInvalidAmount.ABCICode(), resp.Code)
	require.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodGet, poolURL+"/quote-remove?lp_token_amount=200000000", "", &resp))
	require.Equal(t, model.ErrInsufficientLiquidity.ABCICode(), resp.Code)

	unknown := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	require.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/v1/pools/"+unknown.Hex(), "", &resp))
	require.Equal(t, model.ErrPoolNotFound.ABCICode(), resp.Code)
}
