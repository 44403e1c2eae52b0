package handler

import (
	"net/http"

	"Lee_QnA/internal/service"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	svc *service.DeleteHistoryService
}

func NewHistoryHandler(svc *service.DeleteHistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

func (h *HistoryHandler) List(c *gin.Context) {
	list, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}
