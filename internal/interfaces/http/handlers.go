package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/bootstrap"
	"github.com/boardkit/boardflow/internal/application/executor"
	"github.com/boardkit/boardflow/internal/application/ledger"
	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/application/registry"
	"github.com/boardkit/boardflow/internal/domain/entity"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// boardHistoryPageLimit caps one page of the board history endpoint.
const boardHistoryPageLimit = 500

// TaskCreator places new tasks into their initial status. Implemented by
// the sqlite task repository; task creation is the external flow the
// executor's contract leans on, not a transition.
type TaskCreator interface {
	CreateTask(ctx context.Context, boardID, statusKey, creatorID string) (*entity.TaskSnapshot, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	registry     *registry.Service
	bootstrapper *bootstrap.Bootstrapper
	executor     *executor.Executor
	ledger       *ledger.Ledger
	tasks        TaskCreator
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	reg *registry.Service,
	bootstrapper *bootstrap.Bootstrapper,
	exec *executor.Executor,
	led *ledger.Ledger,
	tasks TaskCreator,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		registry:     reg,
		bootstrapper: bootstrapper,
		executor:     exec,
		ledger:       led,
		tasks:        tasks,
		logger:       logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// BootstrapBoard handles POST /api/v1/boards/:board_id/bootstrap
func (h *Handlers) BootstrapBoard(c *gin.Context) {
	boardID := c.Param("board_id")
	if err := h.bootstrapper.EnsureBootstrapped(c.Request.Context(), boardID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListStatuses handles GET /api/v1/boards/:board_id/statuses
func (h *Handlers) ListStatuses(c *gin.Context) {
	statuses, err := h.registry.Statuses(c.Request.Context(), c.Param("board_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: statuses})
}

// createStatusRequest is the body of POST .../statuses
type createStatusRequest struct {
	Key         string `json:"key" binding:"required"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
	IsInitial   bool   `json:"is_initial"`
	IsFinal     bool   `json:"is_final"`
}

// CreateStatus handles POST /api/v1/boards/:board_id/statuses
func (h *Handlers) CreateStatus(c *gin.Context) {
	var req createStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	status, err := h.registry.CreateStatus(c.Request.Context(), registry.CreateStatusInput{
		BoardID:     c.Param("board_id"),
		Key:         req.Key,
		DisplayName: req.DisplayName,
		Color:       req.Color,
		Position:    req.Position,
		IsInitial:   req.IsInitial,
		IsFinal:     req.IsFinal,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: status})
}

// DeactivateStatus handles DELETE /api/v1/boards/:board_id/statuses/:key
func (h *Handlers) DeactivateStatus(c *gin.Context) {
	err := h.registry.DeactivateStatus(c.Request.Context(), c.Param("board_id"), c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListTransitionsFrom handles GET /api/v1/boards/:board_id/statuses/:key/transitions
func (h *Handlers) ListTransitionsFrom(c *gin.Context) {
	transitions, err := h.registry.TransitionsFrom(c.Request.Context(), c.Param("board_id"), c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: transitions})
}

// createTransitionRequest is the body of POST .../transitions
type createTransitionRequest struct {
	FromKey             string `json:"from_status_key" binding:"required"`
	ToKey               string `json:"to_status_key" binding:"required"`
	Name                string `json:"name" binding:"required"`
	RequireAssignee     bool   `json:"require_assignee"`
	RequireComment      bool   `json:"require_comment"`
	AutoAssignCreator   bool   `json:"auto_assign_creator"`
	AutoNotifyAssignees bool   `json:"auto_notify_assignees"`
}

// CreateTransition handles POST /api/v1/boards/:board_id/transitions
func (h *Handlers) CreateTransition(c *gin.Context) {
	var req createTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	input := registry.CreateTransitionInput{
		BoardID: c.Param("board_id"),
		FromKey: req.FromKey,
		ToKey:   req.ToKey,
		Name:    req.Name,
	}
	if req.RequireAssignee {
		input.Preconditions = append(input.Preconditions, workflow.PreconditionAssigneePresent)
	}
	if req.RequireComment {
		input.Preconditions = append(input.Preconditions, workflow.PreconditionCommentPresent)
	}
	if req.AutoAssignCreator {
		input.Automations = append(input.Automations, workflow.AutomationAssignCreator)
	}
	if req.AutoNotifyAssignees {
		input.Automations = append(input.Automations, workflow.AutomationNotifyAssignees)
	}

	transition, err := h.registry.CreateTransition(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: transition})
}

// DeactivateTransition handles DELETE /api/v1/boards/:board_id/transitions/:name
func (h *Handlers) DeactivateTransition(c *gin.Context) {
	err := h.registry.DeactivateTransition(c.Request.Context(), c.Param("board_id"), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// createTaskRequest is the body of POST /api/v1/tasks
type createTaskRequest struct {
	BoardID   string `json:"board_id" binding:"required"`
	StatusKey string `json:"status_key"`
	CreatorID string `json:"creator_id" binding:"required"`
}

// CreateTask handles POST /api/v1/tasks. New tasks are placed directly
// into an initial status of the board; this placement is not a transition
// and produces no audit entry.
func (h *Handlers) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	machine, err := h.registry.Machine(c.Request.Context(), req.BoardID)
	if err != nil {
		h.fail(c, err)
		return
	}

	statusKey := req.StatusKey
	if statusKey == "" {
		initials := machine.InitialStatuses()
		if len(initials) == 0 {
			c.JSON(http.StatusUnprocessableEntity, Response{Error: "board has no initial status"})
			return
		}
		statusKey = initials[0].Key
	} else {
		status, ok := machine.Status(statusKey)
		if !ok || !status.IsActive || !status.IsInitial {
			c.JSON(http.StatusUnprocessableEntity, Response{Error: "status is not an active initial status"})
			return
		}
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.BoardID, statusKey, req.CreatorID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: task})
}

// requestTransitionRequest is the body of POST /api/v1/tasks/:id/transitions
type requestTransitionRequest struct {
	Transition string `json:"transition" binding:"required"`
	ActorID    string `json:"actor_id" binding:"required"`
	ActorName  string `json:"actor_name"`
	Comment    string `json:"comment"`
}

// RequestTransition handles POST /api/v1/tasks/:id/transitions
func (h *Handlers) RequestTransition(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid task id"})
		return
	}

	var req requestTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	entry, err := h.executor.RequestTransition(
		c.Request.Context(),
		taskID,
		req.Transition,
		entity.Actor{ID: req.ActorID, DisplayName: req.ActorName},
		req.Comment,
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entry})
}

// TaskHistory handles GET /api/v1/tasks/:id/history
func (h *Handlers) TaskHistory(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid task id"})
		return
	}

	history, err := h.ledger.HistoryForTask(c.Request.Context(), taskID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// boardHistoryResponse is one page of board history plus the resume token.
type boardHistoryResponse struct {
	Entries   []*entity.AuditEntry `json:"entries"`
	NextToken int64                `json:"next_token"`
}

// BoardHistory handles GET /api/v1/boards/:board_id/history. Query
// parameters: since (RFC3339), after (resume token), limit.
func (h *Handlers) BoardHistory(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "since must be RFC3339"})
			return
		}
		since = parsed
	}

	var afterSeq int64
	if raw := c.Query("after"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "after must be an integer"})
			return
		}
		afterSeq = parsed
	}

	limit := boardHistoryPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, Response{Error: "limit must be a positive integer"})
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	cursor := h.ledger.ResumeHistoryForBoard(c.Param("board_id"), since, afterSeq)
	entries := []*entity.AuditEntry{}
	for len(entries) < limit {
		entry, ok, err := cursor.Next(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			break
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: boardHistoryResponse{
		Entries:   entries,
		NextToken: cursor.Token(),
	}})
}

// fail maps typed engine errors onto HTTP status codes. Permission
// failures deliberately carry no detail about which precondition would
// otherwise have failed.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, Response{Error: "permission denied"})
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, workflow.ErrUnknownTransitionName),
		errors.Is(err, port.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, Response{Error: err.Error()})
	case errors.Is(err, workflow.ErrDuplicateKey),
		errors.Is(err, workflow.ErrDuplicateName),
		errors.Is(err, workflow.ErrConcurrentModification):
		c.JSON(http.StatusConflict, Response{Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrMissingAssignee),
		errors.Is(err, workflow.ErrMissingComment),
		errors.Is(err, workflow.ErrUnknownStatus):
		c.JSON(http.StatusUnprocessableEntity, Response{Error: err.Error()})
	case errors.Is(err, workflow.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, Response{Error: err.Error()})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: "internal error"})
	}
}
