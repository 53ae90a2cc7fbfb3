// Package accountdelivery manages delivery layer of accounts and ledger reads.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/pkg/web"
)

//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery

// AccountService provides account provisioning needed by account delivery layer.
type AccountService interface {
	Create(ctx context.Context, ownerID string, accountType domain.AccountType) (domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
}

// QueryService provides read-only views needed by account delivery layer.
type QueryService interface {
	GetAccount(ctx context.Context, id int64) (domain.Account, error)
	ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListAll(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	accounts AccountService
	queries  QueryService
}

// NewHandler returns account handler.
func NewHandler(as AccountService, qs QueryService) *Handler {
	return &Handler{
		accounts: as,
		queries:  qs,
	}
}

type data struct {
	Account domain.Account `json:"account"`
}
type response struct {
	Data data `json:"data,omitempty"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}
type responseAccounts struct {
	Data dataAccounts `json:"data,omitempty"`
}

type dataTransactions struct {
	Transactions []domain.Transaction `json:"transactions"`
}
type responseTransactions struct {
	Data dataTransactions `json:"data,omitempty"`
}

func respondErr(gctx *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidOwner) {
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	}

	code, exposed := ledgerdelivery.StatusFor(err)
	gctx.JSON(code, web.Error(exposed))
}

func badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})
}

type createRequest struct {
	OwnerID     string `json:"owner_id" binding:"required"`
	AccountType string `json:"account_type"`
}

// Create handles http request to create account.
func (h *Handler) Create(gctx *gin.Context) {
	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	account, err := h.accounts.Create(gctx.Request.Context(), req.OwnerID, domain.AccountType(req.AccountType))
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{account}})
}

type listRequest struct {
	OwnerID string `form:"owner_id" binding:"required"`
}

// List handles http request to list accounts of an owner.
func (h *Handler) List(gctx *gin.Context) {
	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	accounts, err := h.accounts.ListByOwner(gctx.Request.Context(), req.OwnerID)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseAccounts{Data: dataAccounts{accounts}})
}

type getRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get account.
func (h *Handler) Get(gctx *gin.Context) {
	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	account, err := h.queries.GetAccount(gctx.Request.Context(), req.ID)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

// ListTransactions handles http request to list the ledger entries of an account.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	transactions, err := h.queries.ListTransactions(gctx.Request.Context(), req.ID)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseTransactions{Data: dataTransactions{transactions}})
}

type pageRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// ListAll handles http request to page through the whole ledger log.
func (h *Handler) ListAll(gctx *gin.Context) {
	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	transactions, err := h.queries.ListAll(gctx.Request.Context(), req.PageSize, req.PageID)
	if err != nil {
		respondErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseTransactions{Data: dataTransactions{transactions}})
}
