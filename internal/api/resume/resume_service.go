package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/cv-builder-api/app/observability/metrics"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ ResumeService = (*ResumeServiceImpl)(nil)

// ResumeService defines the business logic contract for resume documents.
type ResumeService interface {
	GetResumes(ctx context.Context, userID string) ([]types.Resume, error)
	GetResume(ctx context.Context, id string) (*types.Resume, error)
	// CreateResume upserts by (userId, template). created is false when an
	// existing document was updated instead.
	CreateResume(ctx context.Context, body map[string]any) (resume *types.Resume, created bool, err error)
	UpdateResume(ctx context.Context, body map[string]any) (*types.Resume, error)
	DeleteResume(ctx context.Context, id string) error
}

type ResumeServiceImpl struct {
	logger  *slog.Logger
	repo    ResumeRepo
	metrics *metrics.AppMetrics
}

func NewResumeService(repo ResumeRepo, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ResumeServiceImpl {
	return &ResumeServiceImpl{
		logger:  logger,
		repo:    repo,
		metrics: appMetrics,
	}
}

var errResumeNotFound = fmt.Errorf("%w: Resume not found.", types.ErrNotFound)

func (s *ResumeServiceImpl) finish(ctx context.Context, span trace.Span, op string, err error) {
	s.metrics.RecordResume(ctx, op, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, op)
}

// GetResumes returns every resume owned by userID.
func (s *ResumeServiceImpl) GetResumes(ctx context.Context, userID string) (resumes []types.Resume, err error) {
	ctx, span := otel.Tracer("ResumeService").Start(ctx, "GetResumes", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer func() { s.finish(ctx, span, "list", err) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required.", types.ErrValidation)
	}

	resumes, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching resumes: %w", err)
	}
	s.logger.DebugContext(ctx, "Resumes fetched", slog.String("userID", userID), slog.Int("count", len(resumes)))
	return resumes, nil
}

// GetResume returns the resume with the given id.
func (s *ResumeServiceImpl) GetResume(ctx context.Context, id string) (resume *types.Resume, err error) {
	ctx, span := otel.Tracer("ResumeService").Start(ctx, "GetResume", trace.WithAttributes(
		attribute.String("resume.id", id),
	))
	defer span.End()
	defer func() { s.finish(ctx, span, "get", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: Resume id is required.", types.ErrValidation)
	}

	resume, err = s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, errResumeNotFound
		}
		return nil, fmt.Errorf("error fetching resume: %w", err)
	}
	return resume, nil
}

// CreateResume stores the body's template fields for its (userId, template)
// pair, merging into the existing document if there is one.
func (s *ResumeServiceImpl) CreateResume(ctx context.Context, body map[string]any) (resume *types.Resume, created bool, err error) {
	ctx, span := otel.Tracer("ResumeService").Start(ctx, "CreateResume")
	defer span.End()
	defer func() { s.finish(ctx, span, "upsert", err) }()

	userID, _ := scalarString(body[types.ResumeKeyUserID])
	if userID == "" {
		return nil, false, fmt.Errorf("%w: userId is required.", types.ErrValidation)
	}
	template, _ := scalarString(body[types.ResumeKeyTemplate])
	if template == "" {
		return nil, false, fmt.Errorf("%w: template is required.", types.ErrValidation)
	}
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("resume.template", template))

	fields, err := types.ResumeFields(body)
	if err != nil {
		return nil, false, err
	}

	resume, created, err = s.repo.Upsert(ctx, userID, template, fields)
	if err != nil {
		return nil, false, fmt.Errorf("error creating or updating resume: %w", err)
	}

	s.logger.InfoContext(ctx, "Resume saved",
		slog.String("resumeID", resume.ID), slog.String("template", template), slog.Bool("created", created))
	return resume, created, nil
}

// UpdateResume applies the body's keys to the resume named by its "_id".
// userId and template may be changed as well.
func (s *ResumeServiceImpl) UpdateResume(ctx context.Context, body map[string]any) (resume *types.Resume, err error) {
	ctx, span := otel.Tracer("ResumeService").Start(ctx, "UpdateResume")
	defer span.End()
	defer func() { s.finish(ctx, span, "update", err) }()

	id, _ := scalarString(body[types.ResumeKeyID])
	if id == "" {
		return nil, fmt.Errorf("%w: Resume _id is required.", types.ErrValidation)
	}
	span.SetAttributes(attribute.String("resume.id", id))

	fields, err := types.ResumeFields(body)
	if err != nil {
		return nil, err
	}

	update := types.ResumeUpdate{Fields: fields}
	if v, ok := scalarString(body[types.ResumeKeyUserID]); ok && v != "" {
		update.UserID = &v
	}
	if v, ok := scalarString(body[types.ResumeKeyTemplate]); ok && v != "" {
		update.Template = &v
	}

	resume, err = s.repo.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			return nil, errResumeNotFound
		case errors.Is(err, types.ErrConflict):
			return nil, err
		}
		return nil, fmt.Errorf("error updating resume: %w", err)
	}
	return resume, nil
}

// DeleteResume removes the resume with the given id.
func (s *ResumeServiceImpl) DeleteResume(ctx context.Context, id string) (err error) {
	ctx, span := otel.Tracer("ResumeService").Start(ctx, "DeleteResume", trace.WithAttributes(
		attribute.String("resume.id", id),
	))
	defer span.End()
	defer func() { s.finish(ctx, span, "delete", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: Resume id is required.", types.ErrValidation)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return errResumeNotFound
		}
		return fmt.Errorf("error deleting resume: %w", err)
	}
	s.logger.InfoContext(ctx, "Resume deleted", slog.String("resumeID", id))
	return nil
}

// scalarString reads a JSON scalar as a trimmed string. Objects and arrays
// are rejected.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
