package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ ResumeRepo = (*PostgresResumeRepo)(nil)

const resumeColumns = `id::text, user_id, template, content, created_at, updated_at`

// PostgresResumeRepo keeps template content in a JSONB column. Merges use the
// jsonb concatenation operator, so top-level keys are replaced like $set.
type PostgresResumeRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresResumeRepo(db database.Querier, logger *slog.Logger) *PostgresResumeRepo {
	return &PostgresResumeRepo{
		logger: logger,
		db:     db,
	}
}

func scanResume(row pgx.Row, extra ...any) (*types.Resume, error) {
	var r types.Resume
	var content []byte
	dest := append([]any{&r.ID, &r.UserID, &r.Template, &content, &r.CreatedAt, &r.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	r.Fields = map[string]any{}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &r.Fields); err != nil {
			return nil, fmt.Errorf("decode resume content: %w", err)
		}
	}
	return &r, nil
}

func (r *PostgresResumeRepo) ListByUser(ctx context.Context, userID string) ([]types.Resume, error) {
	rows, err := r.db.Query(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query resumes: %w", err)
	}
	defer rows.Close()

	resumes := make([]types.Resume, 0)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, *resume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return resumes, nil
}

func (r *PostgresResumeRepo) GetByID(ctx context.Context, id string) (*types.Resume, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, types.ErrNotFound
	}
	resume, err := scanResume(r.db.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, rid))
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return resume, err
}

func (r *PostgresResumeRepo) Upsert(ctx context.Context, userID, template string, fields map[string]any) (*types.Resume, bool, error) {
	content, err := json.Marshal(fields)
	if err != nil {
		return nil, false, fmt.Errorf("encode resume content: %w", err)
	}

	var created bool
	resume, err := scanResume(r.db.QueryRow(ctx,
		`INSERT INTO resumes (id, user_id, template, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, template)
		 DO UPDATE SET content = resumes.content || EXCLUDED.content, updated_at = now()
		 RETURNING `+resumeColumns+`, (xmax = 0) AS inserted`,
		uuid.New(), userID, template, content), &created)
	if err != nil {
		return nil, false, fmt.Errorf("upsert resume: %w", err)
	}
	r.logger.DebugContext(ctx, "Resume upserted", slog.String("resumeID", resume.ID), slog.Bool("created", created))
	return resume, created, nil
}

func (r *PostgresResumeRepo) Update(ctx context.Context, id string, update types.ResumeUpdate) (*types.Resume, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, types.ErrNotFound
	}
	fields := update.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	content, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode resume content: %w", err)
	}

	resume, err := scanResume(r.db.QueryRow(ctx,
		`UPDATE resumes
		 SET user_id = COALESCE($2, user_id),
		     template = COALESCE($3, template),
		     content = content || $4::jsonb,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+resumeColumns,
		rid, update.UserID, update.Template, content))
	switch {
	case err == nil:
		return resume, nil
	case errors.Is(err, types.ErrNotFound):
		return nil, err
	case database.IsUniqueViolation(err):
		return nil, fmt.Errorf("%w: A resume for this user and template already exists.", types.ErrConflict)
	}
	return nil, fmt.Errorf("update resume: %w", err)
}

func (r *PostgresResumeRepo) Delete(ctx context.Context, id string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return types.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, rid)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
