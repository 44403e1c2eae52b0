package handler

import (
	"fmt"
	"net/http"

	"Lee_QnA/internal/service"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	svc *service.QnaService
}

type AnswerReq struct {
	Contents string `json:"contents" binding:"required"`
}

func NewAnswerHandler(svc *service.QnaService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

func (h *AnswerHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AnswerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	a, err := h.svc.AddAnswer(c.Request.Context(), userID, questionID, req.Contents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/questions/%d/answers/%d", questionID, a.ID))
	c.JSON(http.StatusCreated, a)
}

func (h *AnswerHandler) List(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListAnswers(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}

	histories, err := h.svc.DeleteAnswer(c.Request.Context(), userID, questionID, answerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted", "histories": histories})
}
