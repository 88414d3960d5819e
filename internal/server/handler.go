package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds task inputs and outputs.
const maxBodyBytes = 8 << 20

// TaskHandler serves the /task routes.
type TaskHandler struct {
	queue  *queue.Queue
	logger *logger.Logger
}

func NewTaskHandler(q *queue.Queue, log *logger.Logger) *TaskHandler {
	return &TaskHandler{queue: q, logger: log}
}

func (h *TaskHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Submit)
	r.GET("/first", h.pull(queue.PolicyFirst))
	r.GET("/random", h.pull(queue.PolicyRandom))
	r.GET("/any", h.pull(queue.PolicyRandom))
	r.POST("/result", h.Report)
	r.GET("/:id", h.Get)
	r.GET("/:id/result", h.WaitResult)
	r.DELETE("/:id", h.Delete)
}

// SubmitResponse is returned by POST /task.
type SubmitResponse struct {
	ID string `json:"id"`
}

// PullResponse is returned by GET /task/{first,random,any}.
type PullResponse struct {
	Task queue.TaskInfo `json:"task"`
}

// ReportRequest is the body of POST /task/result.
type ReportRequest struct {
	ID     string          `json:"id" binding:"required"`
	Output json.RawMessage `json:"output"`
}

// ResultResponse is returned by GET /task/:id/result.
type ResultResponse struct {
	Output json.RawMessage `json:"output"`
}

// ErrorResponse is the body of every non-2xx answer except redirects.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *TaskHandler) Submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body: " + err.Error()})
		return
	}
	if len(body) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "task input must be valid JSON"})
		return
	}

	id, err := h.queue.Submit(c.Query("id"), json.RawMessage(body))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{ID: id})
}

func (h *TaskHandler) pull(policy queue.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := h.queue.Pull(c.Request.Context(), policy)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, PullResponse{Task: info})
	}
}

func (h *TaskHandler) Report(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid result body: " + err.Error()})
		return
	}
	if len(req.Output) == 0 {
		req.Output = json.RawMessage("null")
	}

	if err := h.queue.DispatchResult(req.ID, req.Output); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{})
}

func (h *TaskHandler) WaitResult(c *gin.Context) {
	out, err := h.queue.WaitResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultResponse{Output: out})
}

func (h *TaskHandler) Get(c *gin.Context) {
	snap, ok := h.queue.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: queue.ErrTaskNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if !h.queue.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: queue.ErrTaskNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// fail maps queue errors onto HTTP answers.
func (h *TaskHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrPollTimeout):
		c.Redirect(http.StatusTemporaryRedirect, c.Request.URL.RequestURI())
	case errors.Is(err, queue.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, queue.ErrTaskExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, queue.ErrInvalidPolicy):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case c.Request.Context().Err() != nil:
		// Caller went away; nobody reads the answer.
		h.logger.Debug("long poll abandoned by client",
			logger.Field{Key: "path", Value: c.Request.URL.Path},
			logger.Field{Key: "request_id", Value: c.GetString(ctxRequestID)})
		c.Abort()
	default:
		h.logger.ErrorCtx(c.Request.Context(), "request failed", err,
			logger.Field{Key: "path", Value: c.Request.URL.Path},
			logger.Field{Key: "request_id", Value: c.GetString(ctxRequestID)})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
