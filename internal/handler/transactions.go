package handler

import (
	"net/http"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/middleware"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type TransactionsHandler struct{ svc service.TransactionService }

func NewTransactionsHandler(svc service.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// List godoc
// @Summary      List sales transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        batch_id  query string false "csv batch id"
// @Param        client_id query int    false "client id"
// @Param        type      query string false "sale | credit | exchange | warranty"
// @Param        date_from query string false "YYYY-MM-DD"
// @Param        date_to   query string false "YYYY-MM-DD, inclusive"
// @Param        page      query int    false "page (default 1)"
// @Param        limit     query int    false "page size (default 50)"
// @Success      200  {object} dto.TransactionListResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one sales transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "transaction id"
// @Success      200  {object} dto.TransactionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/transactions/{id} [get]
func (h *TransactionsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a sales transaction
// @Description  Reverses the item status change and client aggregates, then removes the row. A credited sale cannot be deleted before its credit.
// @Tags         transactions
// @Security     BearerAuth
// @Param        id path int true "transaction id"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/transactions/{id} [delete]
func (h *TransactionsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.GetClaims(c).Actor()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
