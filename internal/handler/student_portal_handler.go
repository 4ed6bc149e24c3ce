package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oralis/viva-backend/internal/adaptive"
	"github.com/oralis/viva-backend/internal/middleware"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/response"
	"github.com/oralis/viva-backend/internal/service"
	"github.com/oralis/viva-backend/internal/validator"
)

// StudentPortalHandler handles the student-facing viva flow: lobby, join,
// state, and answer submission.
type StudentPortalHandler struct {
	vivaService    *service.VivaService
	sessionService *service.SessionService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	vivaService *service.VivaService,
	sessionService *service.SessionService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		vivaService:    vivaService,
		sessionService: sessionService,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns published vivas with the student's own session status overlaid.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.vivaService.Lobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"vivas": lobby})
}

// JoinViva godoc
// POST /api/v1/student/vivas/:viva_id/join
// Validates the entry token and starts (or resumes) the adaptive session.
func (h *StudentPortalHandler) JoinViva(c *gin.Context) {
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

	var req model.JoinVivaRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Join(c.Request.Context(), vivaID, claims.UserID, req.EntryToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVivaNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrInvalidEntryToken):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidEntryToken)
		case errors.Is(err, service.ErrVivaNotAvailable):
			response.Fail(c, http.StatusBadRequest, response.ErrVivaNotAvailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetSessionState godoc
// GET /api/v1/student/vivas/:viva_id/session
// Returns the current session state for reconnect/refresh.
func (h *StudentPortalHandler) GetSessionState(c *gin.Context) {
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

	state, err := h.sessionService.GetState(c.Request.Context(), vivaID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitAnswer godoc
// POST /api/v1/student/vivas/:viva_id/session/answers
// Scores the answer to the question currently awaiting one and returns
// feedback plus the next question.
func (h *StudentPortalHandler) SubmitAnswer(c *gin.Context) {
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

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.SubmitAnswer(c.Request.Context(), vivaID, claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrSessionCompleted), errors.Is(err, adaptive.ErrSessionClosed):
			response.Fail(c, http.StatusConflict, response.ErrSessionComplete)
		case errors.Is(err, adaptive.ErrUnknownQuestion):
			response.Fail(c, http.StatusConflict, response.ErrQuestionNotAsked)
		case errors.Is(err, adaptive.ErrInvalidScore):
			response.Fail(c, http.StatusBadRequest, response.ErrScoreOutOfRange)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}
