package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"pairpool/internal/pool"
	"pairpool/internal/service"
	"pairpool/internal/storage"
)

const (
	aliceHex = "0x00000000000000000000000000000000000000a1"
	bobHex   = "0x00000000000000000000000000000000000000b2"
	adminHex = "0x00000000000000000000000000000000000000ff"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	engine, err := pool.New(common.HexToAddress(adminHex), 30)
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "pool.json"))
	svc := service.NewPoolService(zap.NewNop(), engine, store, nil, service.Config{})

	app := fiber.New()
	NewPoolHandler(zap.NewNop(), svc).Register(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("parse body %q: %v", data, err)
		}
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("parse body %q: %v", data, err)
	}
}

func seedPool(t *testing.T, app *fiber.App) {
	t.Helper()
	resp := postJSON(t, app, "/v1/pool/deposit", depositRequest{AmountA: "200", AmountB: "100", Caller: aliceHex})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed deposit status %d", resp.StatusCode)
	}
}

func TestDepositEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/v1/pool/deposit", depositRequest{AmountA: "200", AmountB: "100", Caller: aliceHex})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body depositResponse
	decodeBody(t, resp, &body)
	if body.SharesMinted != "141" {
		t.Fatalf("shares_minted %q, want 141", body.SharesMinted)
	}

	var state poolStateResponse
	getJSON(t, app, "/v1/pool", &state)
	if state.BalanceA != "200" || state.BalanceB != "100" || state.TotalShares != "141" || state.FeeBps != 30 {
		t.Fatalf("pool state mismatch: %+v", state)
	}
}

func TestDepositValidation(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name string
		req  depositRequest
	}{
		{"missing_caller", depositRequest{AmountA: "1", AmountB: "1"}},
		{"bad_caller", depositRequest{AmountA: "1", AmountB: "1", Caller: "nope"}},
		{"missing_amount", depositRequest{AmountA: "1", Caller: aliceHex}},
		{"zero_amount", depositRequest{AmountA: "0", AmountB: "1", Caller: aliceHex}},
		{"negative_amount", depositRequest{AmountA: "-5", AmountB: "1", Caller: aliceHex}},
		{"non_numeric", depositRequest{AmountA: "ten", AmountB: "1", Caller: aliceHex}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, app, "/v1/pool/deposit", tc.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSwapAndQuoteEndpoints(t *testing.T) {
	app := newTestApp(t)
	seedPool(t, app)

	var quote swapResponse
	resp := getJSON(t, app, "/v1/pool/quote?token_in=A&amount_in=10", &quote)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quote status %d", resp.StatusCode)
	}
	if quote.AmountOut != "5" {
		t.Fatalf("quote amount_out %q, want 5", quote.AmountOut)
	}

	resp = postJSON(t, app, "/v1/pool/swap", swapRequest{TokenIn: "A", AmountIn: "10", Caller: bobHex})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swap status %d", resp.StatusCode)
	}
	var out swapResponse
	decodeBody(t, resp, &out)
	if out.AmountOut != "5" {
		t.Fatalf("swap amount_out %q, want 5", out.AmountOut)
	}

	var state poolStateResponse
	getJSON(t, app, "/v1/pool", &state)
	if state.BalanceA != "210" || state.BalanceB != "95" {
		t.Fatalf("post-swap state mismatch: %+v", state)
	}

	// unknown token side
	resp = getJSON(t, app, "/v1/pool/quote?token_in=C&amount_in=10", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad token status %d, want 400", resp.StatusCode)
	}
}

func TestWithdrawEndpoint(t *testing.T) {
	app := newTestApp(t)
	seedPool(t, app)

	resp := postJSON(t, app, "/v1/pool/withdraw", withdrawRequest{Shares: "47", Caller: aliceHex})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body withdrawResponse
	decodeBody(t, resp, &body)
	if body.AmountA != "66" || body.AmountB != "33" {
		t.Fatalf("withdraw returned (%s, %s), want (66, 33)", body.AmountA, body.AmountB)
	}

	// over-withdrawal is a client error
	resp = postJSON(t, app, "/v1/pool/withdraw", withdrawRequest{Shares: "1000", Caller: aliceHex})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("over-withdraw status %d, want 400", resp.StatusCode)
	}
	// no ledger entry at all
	resp = postJSON(t, app, "/v1/pool/withdraw", withdrawRequest{Shares: "1", Caller: bobHex})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no-balance status %d, want 400", resp.StatusCode)
	}
}

func TestSetFeeEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/v1/pool/fee", setFeeRequest{FeeBps: 100, Caller: bobHex})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin status %d, want 403", resp.StatusCode)
	}

	resp = postJSON(t, app, "/v1/pool/fee", setFeeRequest{FeeBps: 9000, Caller: adminHex})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range status %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, app, "/v1/pool/fee", setFeeRequest{FeeBps: 100, Caller: adminHex})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status %d, want 200", resp.StatusCode)
	}
	var state poolStateResponse
	getJSON(t, app, "/v1/pool", &state)
	if state.FeeBps != 100 {
		t.Fatalf("fee_bps %d, want 100", state.FeeBps)
	}
}

func TestHolderAndEventsEndpoints(t *testing.T) {
	app := newTestApp(t)
	seedPool(t, app)

	var holder holderResponse
	getJSON(t, app, "/v1/pool/holders/"+aliceHex, &holder)
	if holder.Shares != "141" {
		t.Fatalf("holder shares %q, want 141", holder.Shares)
	}
	// unknown holder defaults to zero
	getJSON(t, app, "/v1/pool/holders/"+bobHex, &holder)
	if holder.Shares != "0" {
		t.Fatalf("unknown holder shares %q, want 0", holder.Shares)
	}
	resp := getJSON(t, app, "/v1/pool/holders/not-an-address", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad address status %d, want 400", resp.StatusCode)
	}

	var events []pool.Event
	getJSON(t, app, "/v1/pool/events", &events)
	if len(events) != 1 || events[0].Kind != pool.EventLiquidityAdded {
		t.Fatalf("events mismatch: %+v", events)
	}
}

func TestSpotPriceAndStatsEndpoints(t *testing.T) {
	app := newTestApp(t)

	var price spotPriceResponse
	getJSON(t, app, "/v1/pool/price", &price)
	if price.Price != "0.000000000000000000" {
		t.Fatalf("empty pool price %q, want zero", price.Price)
	}

	seedPool(t, app)
	getJSON(t, app, "/v1/pool/price", &price)
	if price.Price != "0.500000000000000000" {
		t.Fatalf("price %q, want 0.5", price.Price)
	}

	postJSON(t, app, "/v1/pool/swap", swapRequest{TokenIn: "A", AmountIn: "10", Caller: bobHex})

	var stats statsResponse
	getJSON(t, app, "/v1/pool/stats", &stats)
	if stats.Deposits != 1 || stats.Swaps != 1 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
	if stats.SwapVolumeA != "10" || stats.SwapVolumeB != "5" {
		t.Fatalf("volumes mismatch: %+v", stats)
	}
}
