package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/dto"
	"github.com/noah-isme/visit-builder-api/internal/service"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
	"github.com/noah-isme/visit-builder-api/pkg/response"
)

type scheduleBuilder interface {
	Open(ctx context.Context, actor service.Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Snapshot(ctx context.Context, actor service.Actor, sessionID string) (*builder.Snapshot, error)
	Close(ctx context.Context, actor service.Actor, sessionID string) error
	Select(ctx context.Context, actor service.Actor, sessionID string, req dto.TeacherRequest) (*builder.Snapshot, error)
	Deselect(ctx context.Context, actor service.Actor, sessionID, teacherID string) (*builder.Snapshot, error)
	ToggleMultiSelect(ctx context.Context, actor service.Actor, sessionID string) (*builder.Snapshot, error)
	StartDragging(ctx context.Context, actor service.Actor, sessionID string, req dto.TeacherRequest) (*builder.Snapshot, error)
	StopDragging(ctx context.Context, actor service.Actor, sessionID string) (*builder.Snapshot, error)
	SetHover(ctx context.Context, actor service.Actor, sessionID string, req dto.HoverRequest) (*builder.Snapshot, error)
	Drop(ctx context.Context, actor service.Actor, sessionID string, req dto.ZoneRequest) (*dto.DropResponse, error)
	Assign(ctx context.Context, actor service.Actor, sessionID string, req dto.AssignRequest) (*dto.DropResponse, error)
	RemoveAssignment(ctx context.Context, actor service.Actor, sessionID, teacherID, start, end string) (*builder.Snapshot, error)
	UpdatePurpose(ctx context.Context, actor service.Actor, sessionID, teacherID string, req dto.PurposeRequest) (*builder.AssignmentState, error)
	Discard(ctx context.Context, actor service.Actor, sessionID string) (*dto.DiscardResponse, error)
	Save(ctx context.Context, actor service.Actor, sessionID string) (*dto.SaveResponse, error)
	Checkpoint(ctx context.Context, actor service.Actor, sessionID string) (*dto.CheckpointResponse, error)
	Restore(ctx context.Context, actor service.Actor, sessionID string) (*builder.Snapshot, error)
	Accountability(ctx context.Context, actor service.Actor, sessionID string) (*dto.AccountabilityResponse, error)
}

// ScheduleBuilderHandler exposes visit builder sessions over HTTP.
type ScheduleBuilderHandler struct {
	service scheduleBuilder
}

// NewScheduleBuilderHandler constructs the handler.
func NewScheduleBuilderHandler(svc *service.ScheduleBuilderService) *ScheduleBuilderHandler {
	return &ScheduleBuilderHandler{service: svc}
}

// Open godoc
// @Summary Open a visit builder session
// @Tags Builder
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /builder/sessions [post]
func (h *ScheduleBuilderHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	resp, err := h.service.Open(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Snapshot godoc
// @Summary Get session state
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /builder/sessions/{id} [get]
func (h *ScheduleBuilderHandler) Snapshot(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context(), actorFromContext(c), c.Param("id"))
	h.respondSnapshot(c, snap, err)
}

// Close godoc
// @Summary Close a session, dropping unsaved work
// @Tags Builder
// @Param id path string true "Session ID"
// @Success 204
// @Router /builder/sessions/{id} [delete]
func (h *ScheduleBuilderHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Select godoc
// @Summary Select a teacher
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.TeacherRequest true "Teacher"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/selection [post]
func (h *ScheduleBuilderHandler) Select(c *gin.Context) {
	var req dto.TeacherRequest
	if !bindJSON(c, &req, "invalid selection payload") {
		return
	}
	snap, err := h.service.Select(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	h.respondSnapshot(c, snap, err)
}

// Deselect godoc
// @Summary Deselect a teacher
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/selection/{teacherId} [delete]
func (h *ScheduleBuilderHandler) Deselect(c *gin.Context) {
	snap, err := h.service.Deselect(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("teacherId"))
	h.respondSnapshot(c, snap, err)
}

// ToggleMultiSelect godoc
// @Summary Toggle multi-select mode
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/selection/multi [post]
func (h *ScheduleBuilderHandler) ToggleMultiSelect(c *gin.Context) {
	snap, err := h.service.ToggleMultiSelect(c.Request.Context(), actorFromContext(c), c.Param("id"))
	h.respondSnapshot(c, snap, err)
}

// StartDragging godoc
// @Summary Start dragging a teacher
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.TeacherRequest true "Teacher"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/drag [post]
func (h *ScheduleBuilderHandler) StartDragging(c *gin.Context) {
	var req dto.TeacherRequest
	if !bindJSON(c, &req, "invalid drag payload") {
		return
	}
	snap, err := h.service.StartDragging(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	h.respondSnapshot(c, snap, err)
}

// StopDragging godoc
// @Summary Cancel the current drag
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/drag [delete]
func (h *ScheduleBuilderHandler) StopDragging(c *gin.Context) {
	snap, err := h.service.StopDragging(c.Request.Context(), actorFromContext(c), c.Param("id"))
	h.respondSnapshot(c, snap, err)
}

// SetHover godoc
// @Summary Set or clear the hovered zone
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.HoverRequest true "Hover zone"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/hover [put]
func (h *ScheduleBuilderHandler) SetHover(c *gin.Context) {
	var req dto.HoverRequest
	if !bindJSON(c, &req, "invalid hover payload") {
		return
	}
	snap, err := h.service.SetHover(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	h.respondSnapshot(c, snap, err)
}

// Drop godoc
// @Summary Drop the dragged teacher onto a zone
// @Description Responds 200 when committed, 409 with conflicts, 502 when the commitment lookup failed.
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ZoneRequest true "Drop zone"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /builder/sessions/{id}/drop [post]
func (h *ScheduleBuilderHandler) Drop(c *gin.Context) {
	var req dto.ZoneRequest
	if !bindJSON(c, &req, "invalid drop payload") {
		return
	}
	resp, err := h.service.Drop(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	h.respondDrop(c, resp, err)
}

// Assign godoc
// @Summary Assign a teacher, or every selected teacher, without dragging
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AssignRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /builder/sessions/{id}/assignments [post]
func (h *ScheduleBuilderHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if !bindJSON(c, &req, "invalid assign payload") {
		return
	}
	resp, err := h.service.Assign(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	h.respondDrop(c, resp, err)
}

// Discard godoc
// @Summary Discard the draft without saving
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/assignments [delete]
func (h *ScheduleBuilderHandler) Discard(c *gin.Context) {
	resp, err := h.service.Discard(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// RemoveAssignment godoc
// @Summary Remove one draft assignment
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Param teacherId path string true "Teacher ID"
// @Param start query string true "Slot start HH:MM"
// @Param end query string true "Slot end HH:MM"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /builder/sessions/{id}/assignments/{teacherId} [delete]
func (h *ScheduleBuilderHandler) RemoveAssignment(c *gin.Context) {
	snap, err := h.service.RemoveAssignment(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("teacherId"), c.Query("start"), c.Query("end"))
	h.respondSnapshot(c, snap, err)
}

// UpdatePurpose godoc
// @Summary Set the purpose of a draft assignment
// @Tags Builder
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.PurposeRequest true "Purpose"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/assignments/{teacherId}/purpose [patch]
func (h *ScheduleBuilderHandler) UpdatePurpose(c *gin.Context) {
	var req dto.PurposeRequest
	if !bindJSON(c, &req, "invalid purpose payload") {
		return
	}
	entry, err := h.service.UpdatePurpose(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("teacherId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Save godoc
// @Summary Persist the draft as planned visits
// @Description A failed save keeps the draft and responds 502 with the result.
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /builder/sessions/{id}/save [post]
func (h *ScheduleBuilderHandler) Save(c *gin.Context) {
	resp, err := h.service.Save(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !resp.Result.Success {
		response.Outcome(c, http.StatusBadGateway, resp)
		return
	}
	response.OK(c, resp)
}

// Checkpoint godoc
// @Summary Store the draft for a later session
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /builder/sessions/{id}/checkpoint [post]
func (h *ScheduleBuilderHandler) Checkpoint(c *gin.Context) {
	resp, err := h.service.Checkpoint(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Restore godoc
// @Summary Replace the draft with the stored checkpoint
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /builder/sessions/{id}/restore [post]
func (h *ScheduleBuilderHandler) Restore(c *gin.Context) {
	snap, err := h.service.Restore(c.Request.Context(), actorFromContext(c), c.Param("id"))
	h.respondSnapshot(c, snap, err)
}

// Accountability godoc
// @Summary Per-teacher coverage for the session
// @Tags Builder
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /builder/sessions/{id}/accountability [get]
func (h *ScheduleBuilderHandler) Accountability(c *gin.Context) {
	resp, err := h.service.Accountability(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *ScheduleBuilderHandler) respondSnapshot(c *gin.Context, snap *builder.Snapshot, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

func (h *ScheduleBuilderHandler) respondDrop(c *gin.Context, resp *dto.DropResponse, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Outcome(c, dropStatus(resp.Results), resp)
}

// dropStatus is 200 when every placement committed, 409 when any hit a
// conflict and 502 when a placement failed on a lookup.
func dropStatus(results []builder.DropResult) int {
	status := http.StatusOK
	for _, result := range results {
		switch {
		case result.Success:
		case result.HasConflicts:
			if status == http.StatusOK {
				status = http.StatusConflict
			}
		default:
			status = http.StatusBadGateway
		}
	}
	return status
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
