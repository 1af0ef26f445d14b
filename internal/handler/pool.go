// Package handler defines the HTTP boundary of the pool service.
package handler

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"pairpool/internal/pool"
	"pairpool/internal/service"
)

// PoolHandler exposes the pool operations over HTTP.
type PoolHandler struct {
	logger  *zap.Logger
	service *service.PoolService
}

func NewPoolHandler(logger *zap.Logger, svc *service.PoolService) *PoolHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolHandler{logger: logger, service: svc}
}

// Register mounts all routes under /v1.
func (h *PoolHandler) Register(app *fiber.App) {
	v1 := app.Group("/v1")
	v1.Post("/pool/deposit", h.Deposit)
	v1.Post("/pool/withdraw", h.Withdraw)
	v1.Post("/pool/swap", h.Swap)
	v1.Post("/pool/fee", h.SetFee)
	v1.Get("/pool/quote", h.Quote)
	v1.Get("/pool/events", h.Events)
	v1.Get("/pool/price", h.SpotPrice)
	v1.Get("/pool/stats", h.Stats)
	v1.Get("/pool/holders/:address", h.HolderBalance)
	v1.Get("/pool", h.PoolState)
}

type depositRequest struct {
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
	Caller  string `json:"caller"`
}

type depositResponse struct {
	SharesMinted string `json:"shares_minted"`
}

func (h *PoolHandler) Deposit(c fiber.Ctx) error {
	var req depositRequest
	if err := c.Bind().Body(&req); err != nil {
		h.logger.Debug("failed to bind deposit body", zap.Error(err))
		return ErrInvalidRequestBody
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return err
	}
	amountA, err := parseAmount(req.AmountA)
	if err != nil {
		return err
	}
	amountB, err := parseAmount(req.AmountB)
	if err != nil {
		return err
	}

	minted, err := h.service.Deposit(context.Background(), caller, amountA, amountB)
	if err != nil {
		return h.fail("deposit", err)
	}
	return c.JSON(depositResponse{SharesMinted: minted.String()})
}

type withdrawRequest struct {
	Shares string `json:"shares"`
	Caller string `json:"caller"`
}

type withdrawResponse struct {
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
}

func (h *PoolHandler) Withdraw(c fiber.Ctx) error {
	var req withdrawRequest
	if err := c.Bind().Body(&req); err != nil {
		h.logger.Debug("failed to bind withdraw body", zap.Error(err))
		return ErrInvalidRequestBody
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return err
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		return err
	}

	outA, outB, err := h.service.Withdraw(context.Background(), caller, shares)
	if err != nil {
		return h.fail("withdraw", err)
	}
	return c.JSON(withdrawResponse{AmountA: outA.String(), AmountB: outB.String()})
}

type swapRequest struct {
	TokenIn  string `json:"token_in"`
	AmountIn string `json:"amount_in"`
	Caller   string `json:"caller"`
}

type swapResponse struct {
	AmountOut string `json:"amount_out"`
}

func (h *PoolHandler) Swap(c fiber.Ctx) error {
	var req swapRequest
	if err := c.Bind().Body(&req); err != nil {
		h.logger.Debug("failed to bind swap body", zap.Error(err))
		return ErrInvalidRequestBody
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return err
	}
	tokenIn, err := parseToken(req.TokenIn)
	if err != nil {
		return err
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return err
	}

	out, err := h.service.Swap(context.Background(), caller, tokenIn, amountIn)
	if err != nil {
		return h.fail("swap", err)
	}
	return c.JSON(swapResponse{AmountOut: out.String()})
}

type quoteRequest struct {
	TokenIn  string `query:"token_in"`
	AmountIn string `query:"amount_in"`
}

func (h *PoolHandler) Quote(c fiber.Ctx) error {
	var req quoteRequest
	if err := c.Bind().Query(&req); err != nil {
		h.logger.Debug("failed to bind quote query", zap.Error(err))
		return ErrInvalidRequestBody
	}
	tokenIn, err := parseToken(req.TokenIn)
	if err != nil {
		return err
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return err
	}

	out, err := h.service.Quote(tokenIn, amountIn)
	if err != nil {
		return h.fail("quote", err)
	}
	return c.JSON(swapResponse{AmountOut: out.String()})
}

type setFeeRequest struct {
	FeeBps uint64 `json:"fee_bps"`
	Caller string `json:"caller"`
}

func (h *PoolHandler) SetFee(c fiber.Ctx) error {
	var req setFeeRequest
	if err := c.Bind().Body(&req); err != nil {
		h.logger.Debug("failed to bind fee body", zap.Error(err))
		return ErrInvalidRequestBody
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		return err
	}

	if err := h.service.SetFee(context.Background(), caller, req.FeeBps); err != nil {
		return h.fail("set fee", err)
	}
	return c.JSON(fiber.Map{"fee_bps": req.FeeBps})
}

type poolStateResponse struct {
	BalanceA    string `json:"balance_a"`
	BalanceB    string `json:"balance_b"`
	TotalShares string `json:"total_shares"`
	FeeBps      uint64 `json:"fee_bps"`
}

func (h *PoolHandler) PoolState(c fiber.Ctx) error {
	st := h.service.State()
	return c.JSON(poolStateResponse{
		BalanceA:    st.BalanceA.String(),
		BalanceB:    st.BalanceB.String(),
		TotalShares: st.TotalShares.String(),
		FeeBps:      st.FeeBps,
	})
}

type holderResponse struct {
	Address string `json:"address"`
	Shares  string `json:"shares"`
}

func (h *PoolHandler) HolderBalance(c fiber.Ctx) error {
	raw := c.Params("address")
	if !common.IsHexAddress(raw) {
		return NewInvalidAddress("holder")
	}
	holder := common.HexToAddress(raw)
	return c.JSON(holderResponse{
		Address: holder.Hex(),
		Shares:  h.service.HolderBalance(holder).String(),
	})
}

func (h *PoolHandler) Events(c fiber.Ctx) error {
	events := h.service.Events()
	if events == nil {
		events = []pool.Event{}
	}
	return c.JSON(events)
}

type spotPriceResponse struct {
	// Price of A in terms of B, decimal with 18 fractional digits; "0" when
	// either balance is empty and no price exists.
	Price string `json:"price"`
}

func (h *PoolHandler) SpotPrice(c fiber.Ctx) error {
	price := h.service.SpotPrice()
	return c.JSON(spotPriceResponse{Price: price.FloatString(18)})
}

type statsResponse struct {
	Deposits     uint64 `json:"deposits"`
	Withdrawals  uint64 `json:"withdrawals"`
	Swaps        uint64 `json:"swaps"`
	SwapVolumeA  string `json:"swap_volume_a"`
	SwapVolumeB  string `json:"swap_volume_b"`
	SharesMinted string `json:"shares_minted"`
	SharesBurned string `json:"shares_burned"`
}

func (h *PoolHandler) Stats(c fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		return h.fail("stats", err)
	}
	return c.JSON(statsResponse{
		Deposits:     stats.Deposits,
		Withdrawals:  stats.Withdrawals,
		Swaps:        stats.Swaps,
		SwapVolumeA:  stats.SwapVolumeA.String(),
		SwapVolumeB:  stats.SwapVolumeB.String(),
		SharesMinted: stats.SharesMinted.String(),
		SharesBurned: stats.SharesBurned.String(),
	})
}

func (h *PoolHandler) fail(op string, err error) error {
	if mapped := mapEngineError(err); mapped != nil {
		return mapped
	}
	h.logger.Error(op+" failed", zap.Error(err))
	return ErrInternal
}

func parseCaller(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, ErrCallerRequired
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, ErrInvalidCaller
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, ErrAmountRequired
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}
	if amount.Sign() <= 0 {
		return nil, ErrAmountNonPositive
	}
	return amount, nil
}

func parseToken(raw string) (pool.Token, error) {
	switch pool.Token(raw) {
	case pool.TokenA, pool.TokenB:
		return pool.Token(raw), nil
	default:
		return "", ErrInvalidToken
	}
}
