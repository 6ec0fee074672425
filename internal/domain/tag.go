package domain

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_tag_service.go -package mocks github.com/aihubhq/aihub/internal/domain TagService
//go:generate mockgen -destination mocks/mock_tag_repository.go -package mocks github.com/aihubhq/aihub/internal/domain TagRepository

const MaxTagLength = 64

// Tag is an entry of a user's tag vocabulary. Tags outlive the contacts carrying them.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TagName   string    `json:"tag_name"`
	CreatedAt time.Time `json:"created_at"`
}

func ScanTag(scanner interface {
	Scan(dest ...interface{}) error
}) (*Tag, error) {
	var t Tag
	var createdAt sql.NullTime
	if err := scanner.Scan(&t.ID, &t.UserID, &t.TagName, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	return &t, nil
}

// NormalizeTags trims, drops empty entries and keeps the first occurrence of each tag.
// A nil or empty input returns nil.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// SuggestTags returns known tags containing query (case-insensitive) that are not already selected
func SuggestTags(known []string, query string, selected []string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	skip := make(map[string]bool, len(selected))
	for _, s := range selected {
		skip[s] = true
	}

	out := []string{}
	for _, tag := range known {
		if skip[tag] {
			continue
		}
		if strings.Contains(strings.ToLower(tag), query) {
			out = append(out, tag)
		}
	}
	return out
}

// CommonTags returns the tags carried by every contact, in the order of the first contact
func CommonTags(contacts []*Contact) []string {
	out := []string{}
	if len(contacts) == 0 {
		return out
	}

	for _, tag := range NormalizeTags(contacts[0].Tags) {
		shared := true
		for _, c := range contacts[1:] {
			if !containsString(c.Tags, tag) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, tag)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type CreateTagRequest struct {
	TagName string `json:"tag_name"`
}

func (r *CreateTagRequest) Validate() error {
	r.TagName = strings.TrimSpace(r.TagName)
	if r.TagName == "" {
		return NewValidationError("tag_name is required")
	}
	if len(r.TagName) > MaxTagLength {
		return NewValidationError("tag_name is too long")
	}
	return nil
}

type TagService interface {
	List(ctx context.Context, userID string) ([]*Tag, error)
	Create(ctx context.Context, userID string, req *CreateTagRequest) (*Tag, error)
	Suggest(ctx context.Context, userID, query string, selected []string) ([]string, error)
}

type TagRepository interface {
	List(ctx context.Context, userID string) ([]*Tag, error)
	// Create is idempotent and returns the stored tag
	Create(ctx context.Context, userID, name string) (*Tag, error)
	// EnsureTags registers every name that the user does not have yet
	EnsureTags(ctx context.Context, userID string, names []string) error
}
