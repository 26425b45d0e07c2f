package handler

import (
	"net/http"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct{ svc service.ActivityService }

func NewActivityHandler(svc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List godoc
// @Summary      Audit trail
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string false "e.g. sales_transaction"
// @Param        entity_id   query int    false "entity id"
// @Param        batch_id    query string false "import batch id"
// @Param        page        query int    false "page (default 1)"
// @Param        limit       query int    false "page size (default 50)"
// @Success      200  {object} dto.ActivityListResponse
// @Router       /v1/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var filter dto.ActivityFilter
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
