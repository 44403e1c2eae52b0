package handler

import (
	"net/http"
	"strconv"

	"Lee_QnA/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	svc *service.QnaService
}

type QuestionReq struct {
	Title    string `json:"title" binding:"required"`
	Contents string `json:"contents" binding:"required"`
}

func NewQuestionHandler(svc *service.QnaService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

// Create 创建问题
func (h *QuestionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req QuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	q, err := h.svc.CreateQuestion(c.Request.Context(), userID, req.Title, req.Contents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", q.URL())
	c.JSON(http.StatusCreated, q)
}

// List 页码分页，新的在前
func (h *QuestionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	list, err := h.svc.ListQuestions(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

func (h *QuestionHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "missing q"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.svc.SearchQuestions(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *QuestionHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.ShowQuestion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req QuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	q, err := h.svc.UpdateQuestion(c.Request.Context(), userID, id, req.Title, req.Contents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Delete 删除问题，连同作者自己的回答
func (h *QuestionHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	histories, err := h.svc.DeleteQuestion(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted", "histories": histories})
}
