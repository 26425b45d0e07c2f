package handler

import (
	"net/http"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct{ svc service.ClientService }

func NewClientsHandler(svc service.ClientService) *ClientsHandler { return &ClientsHandler{svc: svc} }

// Metrics godoc
// @Summary      Client lifetime metrics
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "client id"
// @Success      200  {object} dto.ClientMetricsResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/clients/{id}/metrics [get]
func (h *ClientsHandler) Metrics(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetMetrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
