package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Keys of a resume document that are owned by the store rather than the template.
const (
	ResumeKeyID        = "_id"
	ResumeKeyUserID    = "userId"
	ResumeKeyTemplate  = "template"
	ResumeKeyCreatedAt = "createdAt"
	ResumeKeyUpdatedAt = "updatedAt"
)

var reservedResumeKeys = map[string]struct{}{
	ResumeKeyID:        {},
	"id":               {},
	"__v":              {},
	ResumeKeyUserID:    {},
	ResumeKeyTemplate:  {},
	ResumeKeyCreatedAt: {},
	ResumeKeyUpdatedAt: {},
}

// IsReservedResumeKey reports whether key cannot be stored as template content.
func IsReservedResumeKey(key string) bool {
	_, ok := reservedResumeKeys[key]
	return ok
}

// Resume is a resume document owned by a user and rendered with a template.
// Fields holds the template-specific content.
type Resume struct {
	ID        string
	UserID    string
	Template  string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON flattens the template fields next to the document keys.
func (r Resume) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		if IsReservedResumeKey(k) {
			continue
		}
		out[k] = v
	}
	out[ResumeKeyID] = r.ID
	out[ResumeKeyUserID] = r.UserID
	out[ResumeKeyTemplate] = r.Template
	out[ResumeKeyCreatedAt] = r.CreatedAt
	out[ResumeKeyUpdatedAt] = r.UpdatedAt
	return json.Marshal(out)
}

// ResumeFields splits a decoded resume body into its content fields,
// dropping every reserved key. Field names that a document store cannot hold
// (empty, dotted or "$"-prefixed, at any depth) are rejected with ErrValidation.
func ResumeFields(body map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(body))
	for k, v := range body {
		if IsReservedResumeKey(k) {
			continue
		}
		if err := checkFieldName(k, v); err != nil {
			return nil, err
		}
		fields[k] = v
	}
	return fields, nil
}

func checkFieldName(key string, value any) error {
	if key == "" || strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
		return fmt.Errorf("%w: Invalid field name %q.", ErrValidation, key)
	}
	return checkNestedFieldNames(value)
}

func checkNestedFieldNames(value any) error {
	switch v := value.(type) {
	case map[string]any:
		for k, inner := range v {
			if err := checkFieldName(k, inner); err != nil {
				return err
			}
		}
	case []any:
		for _, inner := range v {
			if err := checkNestedFieldNames(inner); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResumeUpdate describes a partial update of a resume. Nil pointers leave the
// corresponding key untouched.
type ResumeUpdate struct {
	UserID   *string
	Template *string
	Fields   map[string]any
}

// ResumeListRequest is the body of the get-resume endpoint.
type ResumeListRequest struct {
	UserID string `json:"userId"`
}

// ResumeResponse wraps a single resume.
type ResumeResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message"`
	Data    *Resume `json:"data"`
}

// ResumeListResponse wraps the resumes of a user.
type ResumeListResponse struct {
	Success bool     `json:"success" example:"true"`
	Message string   `json:"message"`
	Data    []Resume `json:"data"`
}
