// Package directory exposes the user/puzzle lookups the chat layer consumes.
// The data is owned by collaborating subsystems; this package only reads it.
package directory

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// User is the directory projection the chat layer needs.
type User struct {
	ID          string
	DisplayName string
	Hunts       []string
	Dingwords   []string
}

// Puzzle resolves a chat channel to its hunt partition.
type Puzzle struct {
	ID     string
	HuntID string
	Title  string
}

// UserDirectory resolves users and hunt memberships.
type UserDirectory interface {
	FindUser(ctx context.Context, id string) (*User, error)
	// DingwordUsers returns hunt members with at least one dingword set.
	DingwordUsers(ctx context.Context, huntID string) ([]User, error)
}

// PuzzleLookup resolves puzzles and hunts.
type PuzzleLookup interface {
	FindPuzzle(ctx context.Context, id string) (*Puzzle, error)
	FindHunt(ctx context.Context, id string) (string, error)
}

// FeatureFlags gates optional behaviour.
type FeatureFlags interface {
	DingwordsDisabled() bool
}

// Service is the gorm-backed implementation of the directory interfaces.
type Service struct {
	db *gorm.DB
}

// NewService constructs a directory service over the shared database handle.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("directory service: db is required")
	}
	return &Service{db: db}, nil
}

// FindUser resolves a user by id.
func (s *Service) FindUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrNotFound
	}

	var row models.User
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return mapUser(row), nil
}

// DingwordUsers returns all members of the hunt that have dingwords configured.
// Membership and dingwords live in JSON columns, so the hunt filter and the
// non-empty check are applied after decoding.
func (s *Service) DingwordUsers(ctx context.Context, huntID string) ([]User, error) {
	huntID = strings.TrimSpace(huntID)
	if huntID == "" {
		return nil, nil
	}

	var rows []models.User
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	var users []User
	for i := range rows {
		row := &rows[i]
		if !row.InHunt(huntID) {
			continue
		}
		if len(row.DingwordList()) == 0 {
			continue
		}
		users = append(users, *mapUser(rows[i]))
	}
	return users, nil
}

// FindPuzzle resolves a puzzle by id.
func (s *Service) FindPuzzle(ctx context.Context, id string) (*Puzzle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrNotFound
	}

	var row models.Puzzle
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return &Puzzle{ID: row.ID, HuntID: row.HuntID, Title: row.Title}, nil
}

// FindHunt confirms a hunt exists and returns its id.
func (s *Service) FindHunt(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.ErrNotFound
	}

	var row models.Hunt
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return row.ID, nil
}

func mapUser(row models.User) *User {
	return &User{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Hunts:       row.HuntIDs(),
		Dingwords:   row.DingwordList(),
	}
}

// InHunt reports whether the user belongs to the supplied hunt.
func (u *User) InHunt(huntID string) bool {
	for _, id := range u.Hunts {
		if id == huntID {
			return true
		}
	}
	return false
}

// StaticFlags is a FeatureFlags implementation backed by configuration.
type StaticFlags struct {
	DisableDingwords bool
}

// DingwordsDisabled reports whether dingword fan-out is switched off.
func (f StaticFlags) DingwordsDisabled() bool {
	return f.DisableDingwords
}
