package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweetpotato0/keyara/errors"
	"github.com/sweetpotato0/keyara/middleware"
)

// Client-facing error details.
const (
	DetailPromptRequired = "Prompt is required"
	DetailPromptTooLong  = "Prompt is too long"
	DetailRateLimited    = "Rate limit exceeded"
	DetailExhausted      = "All Keyara models failed. Please try again later."
	DetailInternal       = "Internal server error"
)

// GenerateRequest is the body of POST /api/gemini/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the success body of POST /api/gemini/generate.
type GenerateResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ModelsResponse lists the configured candidates in order.
type ModelsResponse struct {
	Models []string `json:"models"`
}

func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: DetailPromptRequired})
		return
	}

	mctx := middleware.NewContext(c.Request.Context(), req.Prompt)
	mctx.Set(middleware.MetadataRequestID, c.GetString(ctxRequestID))
	mctx.Set(middleware.MetadataClientKey, c.ClientIP())

	if err := s.chain.Execute(mctx, middleware.GenerateHandler(s.gen)); err != nil {
		status, detail := StatusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(c.Request.Context(), "generate failed",
				"request_id", mctx.RequestID(), "error", err)
		}
		c.JSON(status, ErrorResponse{Detail: detail})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Response: mctx.Response})
}

func (s *Server) models(c *gin.Context) {
	ids := s.gen.CandidateIDs()
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, ModelsResponse{Models: ids})
}

// StatusFor maps a pipeline error to an HTTP status and client detail.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrPromptTooLong):
		return http.StatusBadRequest, DetailPromptTooLong
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, DetailPromptRequired
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, DetailRateLimited
	case errors.Is(err, errors.ErrProvidersExhausted), errors.Is(err, middleware.ErrNoResponse):
		return http.StatusInternalServerError, DetailExhausted
	default:
		return http.StatusInternalServerError, DetailInternal
	}
}
