package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimsug/jolly-roger/internal/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"hunts", "puzzles", "users", "chat_messages", "chat_notifications"} {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	hunt := models.Hunt{Name: "Mystery Hunt"}
	require.NoError(t, db.Create(&hunt).Error)
	require.NotEmpty(t, hunt.ID, "BeforeCreate should assign a uuid")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "jolly", Name: "roger", Host: "db", Port: 5433})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=db")
	require.Contains(t, dsn, "port=5433")
	require.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "jolly", Password: "pw", Name: "roger"})
	require.NoError(t, err)
	require.Contains(t, dsn, "jolly:pw@tcp(127.0.0.1:3306)/roger")
	require.Contains(t, dsn, "parseTime=True")
}
