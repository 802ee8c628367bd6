package query

import (
	"context"
	"encoding/json"
	"strings"

	"ai-research-kb/config"
	"ai-research-kb/internal/rag"
	"ai-research-kb/pkg/apperror"
	"ai-research-kb/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type Request struct {
	Question string     `json:"question"`
	History  []rag.Turn `json:"history"`
}

type Response struct {
	Answer   string               `json:"answer"`
	Contexts []rag.ContextSnippet `json:"contexts"`
}

type Handler struct {
	answerer *rag.Answerer
}

func NewHandler(answerer *rag.Answerer) *Handler {
	return &Handler{answerer: answerer}
}

func (h *Handler) HandleQuery(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	var req Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleServer, c, status.InvalidRequestBody, err.Error())
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return apperror.BadRequest(config.ModuleServer, c, status.MissingParams, "question is empty")
	}

	answer, contexts, err := h.answerer.Answer(context.Background(), req.Question, req.History)
	if err != nil {
		return apperror.InternalError(config.ModuleServer, c, err)
	}

	return apperror.Success(config.ModuleServer, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "query ok",
		TrackingID: trackingID,
		Data:       Response{Answer: answer, Contexts: contexts},
	})
}
