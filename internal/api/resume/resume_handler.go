package resume

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/cv-builder-api/internal/api"
	"github.com/FACorreiaa/cv-builder-api/internal/api/auth"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetResumes(w http.ResponseWriter, r *http.Request)
	GetResume(w http.ResponseWriter, r *http.Request)
	CreateResume(w http.ResponseWriter, r *http.Request)
	UpdateResume(w http.ResponseWriter, r *http.Request)
	DeleteResume(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	resumeService ResumeService
	logger        *slog.Logger
}

// NewHandlerImpl creates a new resume HandlerImpl instance.
func NewHandlerImpl(resumeService ResumeService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		resumeService: resumeService,
		logger:        logger,
	}
}

// scopedLogger tags log lines with the handler name and the authenticated caller.
func (h *HandlerImpl) scopedLogger(r *http.Request, name string) *slog.Logger {
	l := h.logger.With(slog.String("HandlerImpl", name))
	if callerID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		l = l.With(slog.String("callerID", callerID))
	}
	return l
}

// writeError answers server errors with the cause text in "error" so the
// editor can surface it; classified errors get their client message.
func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error, fallback string) {
	status := api.StatusFromError(err)
	if status != http.StatusInternalServerError {
		api.ErrorResponse(w, r, status, api.ClientMessage(err, fallback))
		return
	}
	l.ErrorContext(r.Context(), fallback, slog.Any("error", err))
	api.ErrorResponseWithDetail(w, r, status, fallback, err.Error())
}

// GetResumes godoc
// @Summary      List a user's resumes
// @Tags         Resume
// @Accept       json
// @Produce      json
// @Param        request body types.ResumeListRequest true "Owner"
// @Success      200 {object} types.ResumeListResponse
// @Failure      400 {object} types.Response "userId is required."
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/cv/get-resume [post]
func (h *HandlerImpl) GetResumes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.scopedLogger(r, "GetResumes")

	var req types.ResumeListRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "userId is required.")
		return
	}

	resumes, err := h.resumeService.GetResumes(ctx, req.UserID)
	if err != nil {
		h.writeError(w, r, l, err, "Error fetching resumes")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.ResumeListResponse{
		Success: true,
		Message: "All User's Resume fetched successfully",
		Data:    resumes,
	})
}

// GetResume godoc
// @Summary      Get a single resume
// @Tags         Resume
// @Produce      json
// @Param        id query string true "Resume ID"
// @Success      200 {object} types.ResumeResponse
// @Failure      400 {object} types.Response "Resume id is required."
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Resume not found."
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/cv/single [get]
func (h *HandlerImpl) GetResume(w http.ResponseWriter, r *http.Request) {
	l := h.scopedLogger(r, "GetResume")

	resume, err := h.resumeService.GetResume(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, r, l, err, "Error fetching single resume")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.ResumeResponse{
		Success: true,
		Message: "Single resume fetched successfully",
		Data:    resume,
	})
}

// CreateResume godoc
// @Summary      Create or update a resume for a template
// @Description  Upserts by (userId, template): 201 when a document is created, 200 when the existing one is updated.
// @Tags         Resume
// @Accept       json
// @Produce      json
// @Param        request body object true "userId, template and template fields"
// @Success      200 {object} types.ResumeResponse "Resume updated"
// @Success      201 {object} types.ResumeResponse "Resume created"
// @Failure      400 {object} types.Response "Missing userId or template"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/cv [post]
func (h *HandlerImpl) CreateResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.scopedLogger(r, "CreateResume")

	body, err := api.DecodeJSONDocument(w, r)
	if err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "userId is required.")
		return
	}

	resume, created, err := h.resumeService.CreateResume(ctx, body)
	if err != nil {
		h.writeError(w, r, l, err, "Error creating or updating resume")
		return
	}

	status, message := http.StatusOK, "Resume updated successfully"
	if created {
		status, message = http.StatusCreated, "Resume created successfully"
	}
	api.WriteJSONResponse(w, r, status, types.ResumeResponse{
		Success: true,
		Message: message,
		Data:    resume,
	})
}

// UpdateResume godoc
// @Summary      Update a resume by id
// @Tags         Resume
// @Accept       json
// @Produce      json
// @Param        request body object true "_id and the fields to set"
// @Success      200 {object} types.ResumeResponse
// @Failure      400 {object} types.Response "Resume _id is required."
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Resume not found."
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/cv [put]
func (h *HandlerImpl) UpdateResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.scopedLogger(r, "UpdateResume")

	body, err := api.DecodeJSONDocument(w, r)
	if err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Resume _id is required.")
		return
	}

	resume, err := h.resumeService.UpdateResume(ctx, body)
	if err != nil {
		h.writeError(w, r, l, err, "Error updating resume")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.ResumeResponse{
		Success: true,
		Message: "Resume updated successfully",
		Data:    resume,
	})
}

// DeleteResume godoc
// @Summary      Delete a resume
// @Tags         Resume
// @Produce      json
// @Param        id path string true "Resume ID"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Resume id is required."
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Resume not found."
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/cv/{id} [delete]
func (h *HandlerImpl) DeleteResume(w http.ResponseWriter, r *http.Request) {
	l := h.scopedLogger(r, "DeleteResume")

	if err := h.resumeService.DeleteResume(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, l, err, "Error deleting resume")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Resume deleted successfully",
	})
}
