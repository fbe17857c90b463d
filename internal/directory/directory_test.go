package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/database/testutil"
	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

func seedDirectory(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Hunt{BaseModel: models.BaseModel{ID: "hunt-1"}, Name: "Hunt"}).Error)
	require.NoError(t, db.Create(&models.Puzzle{BaseModel: models.BaseModel{ID: "puzzle-1"}, HuntID: "hunt-1", Title: "Cryptic"}).Error)

	users := []models.User{
		{
			BaseModel:   models.BaseModel{ID: "u-alice"},
			DisplayName: "Alice",
			Hunts:       models.EncodeStringList([]string{"hunt-1"}),
			Dingwords:   models.EncodeStringList([]string{"launch"}),
		},
		{
			BaseModel:   models.BaseModel{ID: "u-bob"},
			DisplayName: "Bob",
			Hunts:       models.EncodeStringList([]string{"hunt-1"}),
			Dingwords:   models.EncodeStringList(nil),
		},
		{
			BaseModel:   models.BaseModel{ID: "u-carol"},
			DisplayName: "Carol",
			Hunts:       models.EncodeStringList([]string{"hunt-2"}),
			Dingwords:   models.EncodeStringList([]string{"launch"}),
		},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}
}

func TestFindUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	seedDirectory(t, db)

	svc, err := NewService(db)
	require.NoError(t, err)

	user, err := svc.FindUser(context.Background(), "u-alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.DisplayName)
	require.Equal(t, []string{"launch"}, user.Dingwords)
	require.True(t, user.InHunt("hunt-1"))

	_, err = svc.FindUser(context.Background(), "u-missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDingwordUsersFiltersByHuntAndDingwords(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	seedDirectory(t, db)

	svc, err := NewService(db)
	require.NoError(t, err)

	users, err := svc.DingwordUsers(context.Background(), "hunt-1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "u-alice", users[0].ID)
}

func TestFindPuzzleAndHunt(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	seedDirectory(t, db)

	svc, err := NewService(db)
	require.NoError(t, err)

	puzzle, err := svc.FindPuzzle(context.Background(), "puzzle-1")
	require.NoError(t, err)
	require.Equal(t, "hunt-1", puzzle.HuntID)

	_, err = svc.FindPuzzle(context.Background(), "puzzle-unknown")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	huntID, err := svc.FindHunt(context.Background(), "hunt-1")
	require.NoError(t, err)
	require.Equal(t, "hunt-1", huntID)
}
