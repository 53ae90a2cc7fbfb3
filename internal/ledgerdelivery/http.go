// Package ledgerdelivery manages delivery layer of balance mutations.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.BalanceResult, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.BalanceResult, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{
		service: ls,
	}
}

// StatusFor maps a ledger error to the http status code and the error exposed to the client.
func StatusFor(err error) (int, error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, err
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, err
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest, err
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusServiceUnavailable, domain.ErrTimeout
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, domain.ErrStoreUnavailable
	}

	return http.StatusInternalServerError, errorspkg.ErrInternal
}

type uriRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

type transferRequest struct {
	ToAccountNumber string `json:"to_account_number" binding:"required,numeric,len=10"`
	Amount          string `json:"amount" binding:"required,amount"`
}

type balanceResponse struct {
	Data domain.BalanceResult `json:"data,omitempty"`
}

type transferResponse struct {
	Data domain.TransferResult `json:"data,omitempty"`
}

// bindAmount binds the account id and the amount of a single-account request.
func bindAmount(gctx *gin.Context) (int64, decimal.Decimal, bool) {
	l := zerolog.Ctx(gctx.Request.Context())

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return 0, decimal.Decimal{}, false
	}

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return 0, decimal.Decimal{}, false
	}

	// The validator has already accepted the amount.
	amount, _ := moneypkg.ParseAmount(req.Amount)

	return uri.ID, amount, true
}

func respondErr(gctx *gin.Context, err error) {
	code, exposed := StatusFor(err)
	gctx.JSON(code, web.Error(exposed))
}

// Deposit handles http request to credit an account.
func (h *Handler) Deposit(gctx *gin.Context) {
	id, amount, ok := bindAmount(gctx)
	if !ok {
		return
	}

	result, err := h.service.Deposit(gctx.Request.Context(), id, amount)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, balanceResponse{Data: result})
}

// Withdraw handles http request to debit an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	id, amount, ok := bindAmount(gctx)
	if !ok {
		return
	}

	result, err := h.service.Withdraw(gctx.Request.Context(), id, amount)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, balanceResponse{Data: result})
}

// Transfer handles http request to move money from an account to another one.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, _ := moneypkg.ParseAmount(req.Amount)

	result, err := h.service.Transfer(ctx, domain.TransferParams{
		FromAccountID:   uri.ID,
		ToAccountNumber: req.ToAccountNumber,
		Amount:          amount,
	})
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, transferResponse{Data: result})
}
