package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oralis/viva-backend/internal/middleware"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/response"
	"github.com/oralis/viva-backend/internal/service"
	"github.com/oralis/viva-backend/internal/validator"
)

// VivaHandler handles examiner-side viva management endpoints.
type VivaHandler struct {
	vivaService *service.VivaService
}

// NewVivaHandler creates a new VivaHandler.
func NewVivaHandler(vivaService *service.VivaService) *VivaHandler {
	return &VivaHandler{vivaService: vivaService}
}

// ListVivas godoc
// GET /api/v1/examiner/vivas
// Lists the examiner's vivas with pagination.
func (h *VivaHandler) ListVivas(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	vivas, pagination, err := h.vivaService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"vivas": vivas}, pagination)
}

// CreateViva godoc
// POST /api/v1/examiner/vivas
// Creates a new draft viva.
func (h *VivaHandler) CreateViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateVivaRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	viva := &model.Viva{
		Title:          req.Title,
		Subject:        req.Subject,
		AuthorID:       claims.UserID,
		MaxQuestions:   req.MaxQuestions,
		EntryToken:     req.EntryToken,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
	}

	if err := h.vivaService.Create(c.Request.Context(), viva); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"viva": viva})
}

// GetViva godoc
// GET /api/v1/examiner/vivas/:viva_id
func (h *VivaHandler) GetViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	viva, err := h.vivaService.GetByID(c.Request.Context(), vivaID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if viva.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotVivaAuthor)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"viva": viva})
}

// UpdateViva godoc
// PUT /api/v1/examiner/vivas/:viva_id
// Updates a draft viva.
func (h *VivaHandler) UpdateViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateVivaRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.vivaService.GetByID(c.Request.Context(), vivaID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Subject != "" {
		existing.Subject = req.Subject
	}
	if req.MaxQuestions != nil {
		existing.MaxQuestions = *req.MaxQuestions
	}
	if req.EntryToken != "" {
		existing.EntryToken = req.EntryToken
	}
	if req.ScheduledStart != nil {
		existing.ScheduledStart = req.ScheduledStart
	}
	if req.ScheduledEnd != nil {
		existing.ScheduledEnd = req.ScheduledEnd
	}

	if err := h.vivaService.Update(c.Request.Context(), claims.UserID, existing); err != nil {
		failVivaError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"viva": existing})
}

// DeleteViva godoc
// DELETE /api/v1/examiner/vivas/:viva_id
// Deletes a draft viva.
func (h *VivaHandler) DeleteViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.vivaService.Delete(c.Request.Context(), vivaID, claims.UserID); err != nil {
		failVivaError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/v1/examiner/vivas/:viva_id/questions
// Returns the full bank including calibration fields.
func (h *VivaHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.vivaService.ListQuestions(c.Request.Context(), vivaID, claims.UserID)
	if err != nil {
		failVivaError(c, err)
		return
	}
	if questions == nil {
		questions = []model.BankQuestion{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/examiner/vivas/:viva_id/questions
// Replaces the entire bank of a draft viva.
func (h *VivaHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.vivaService.ReplaceQuestions(c.Request.Context(), vivaID, claims.UserID, req.Questions); err != nil {
		failVivaError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(req.Questions)})
}

// PublishViva godoc
// POST /api/v1/examiner/vivas/:viva_id/publish
// Publishes a draft viva and warms its bank cache.
func (h *VivaHandler) PublishViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.vivaService.Publish(c.Request.Context(), vivaID, claims.UserID); err != nil {
		failVivaError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.VivaStatusPublished})
}

// ArchiveViva godoc
// POST /api/v1/examiner/vivas/:viva_id/archive
// Closes a published viva to new joins.
func (h *VivaHandler) ArchiveViva(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.vivaService.Archive(c.Request.Context(), vivaID, claims.UserID); err != nil {
		failVivaError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.VivaStatusArchived})
}

// GetResults godoc
// GET /api/v1/examiner/vivas/:viva_id/results
// Lists session outcomes for a viva, newest first.
func (h *VivaHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, pagination, err := h.vivaService.Results(c.Request.Context(), vivaID, claims.UserID, page, perPage)
	if err != nil {
		failVivaError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// failVivaError maps viva service errors to response codes.
func failVivaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotVivaAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotVivaAuthor)
	case errors.Is(err, service.ErrVivaNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrVivaNotDraft)
	case errors.Is(err, service.ErrVivaNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrVivaNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
