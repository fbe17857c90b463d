package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimsug/jolly-roger/internal/content"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

type fakeUserDirectory struct {
	users map[string]directory.User
}

func (f *fakeUserDirectory) FindUser(_ context.Context, id string) (*directory.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserDirectory) DingwordUsers(context.Context, string) ([]directory.User, error) {
	return nil, nil
}

func newTestReactionService(t *testing.T) (*ReactionService, *MessageService) {
	t.Helper()

	messages, _ := newTestMessageService(t)
	users := &fakeUserDirectory{users: map[string]directory.User{
		"user-1": {ID: "user-1", DisplayName: "Alice"},
		"user-2": {ID: "user-2", DisplayName: "Bob"},
	}}
	svc, err := NewReactionService(messages.db, messages, users)
	require.NoError(t, err)
	return svc, messages
}

func appendTarget(t *testing.T, messages *MessageService) *models.ChatMessage {
	t.Helper()
	msg, err := messages.Append(context.Background(), AppendMessageParams{
		PuzzleID: "puzzle-1",
		Sender:   "user-1",
		Content:  content.NewDocument(content.TextNode("solved it!")),
	})
	require.NoError(t, err)
	return msg
}

func TestReactionToggleAddsAndRemoves(t *testing.T) {
	svc, messages := newTestReactionService(t)
	ctx := context.Background()
	target := appendTarget(t, messages)

	summary, err := svc.Toggle(ctx, target.ID, "user-2", "🎉")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Counts["🎉"])
	require.Equal(t, []string{"Bob"}, summary.Users["🎉"])
	require.True(t, summary.SelfReactions["🎉"])

	// Toggling the same emoji again withdraws it.
	summary, err = svc.Toggle(ctx, target.ID, "user-2", "🎉")
	require.NoError(t, err)
	require.Zero(t, summary.Counts["🎉"])
	require.Empty(t, summary.Users["🎉"])
	require.False(t, summary.SelfReactions["🎉"])
}

func TestReactionAggregateCountsDistinctSenders(t *testing.T) {
	svc, messages := newTestReactionService(t)
	ctx := context.Background()
	target := appendTarget(t, messages)

	_, err := svc.Toggle(ctx, target.ID, "user-1", "👍")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, target.ID, "user-2", "👍")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, target.ID, "user-2", "🎉")
	require.NoError(t, err)

	summary, err := svc.Aggregate(ctx, target.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Counts["👍"])
	require.Equal(t, 1, summary.Counts["🎉"])
	require.Equal(t, []string{"Alice", "Bob"}, summary.Users["👍"])
	require.True(t, summary.SelfReactions["👍"])
	require.False(t, summary.SelfReactions["🎉"])
}

func TestReactionAggregateUnknownSenderName(t *testing.T) {
	svc, messages := newTestReactionService(t)
	ctx := context.Background()
	target := appendTarget(t, messages)

	_, err := svc.Toggle(ctx, target.ID, "user-gone", "👍")
	require.NoError(t, err)

	summary, err := svc.Aggregate(ctx, target.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"???"}, summary.Users["👍"])
}

func TestReactionAggregateIgnoresTextReplies(t *testing.T) {
	svc, messages := newTestReactionService(t)
	ctx := context.Background()
	target := appendTarget(t, messages)

	_, err := messages.Append(ctx, AppendMessageParams{
		PuzzleID: "puzzle-1",
		Sender:   "user-2",
		Content:  content.NewDocument(content.TextNode("nice work")),
		ParentID: &target.ID,
	})
	require.NoError(t, err)

	summary, err := svc.Aggregate(ctx, target.ID, "user-1")
	require.NoError(t, err)
	require.Empty(t, summary.Counts)
}

func TestReactionToggleRejectsNonEmoji(t *testing.T) {
	svc, messages := newTestReactionService(t)
	target := appendTarget(t, messages)

	_, err := svc.Toggle(context.Background(), target.ID, "user-1", "nope")
	require.Error(t, err)
}
