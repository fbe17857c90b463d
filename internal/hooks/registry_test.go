package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

type recordingHookset struct {
	name  string
	calls *[]string
	err   error
}

func (h *recordingHookset) Name() string { return h.name }

func (h *recordingHookset) OnMessageCreated(ctx context.Context, messageID string) error {
	*h.calls = append(*h.calls, h.name+":"+messageID)
	return h.err
}

type puzzleOnlyHookset struct{}

func (puzzleOnlyHookset) Name() string { return "puzzle-only" }

func (puzzleOnlyHookset) OnPuzzleCreated(ctx context.Context, puzzleID string) error {
	return nil
}

func TestDispatchMessageCreatedRunsInOrder(t *testing.T) {
	var calls []string
	registry := NewRegistry()
	registry.Add(&recordingHookset{name: "first", calls: &calls})
	registry.Add(puzzleOnlyHookset{})
	registry.Add(&recordingHookset{name: "second", calls: &calls})

	require.NoError(t, registry.DispatchMessageCreated(context.Background(), "msg-1"))
	require.Equal(t, []string{"first:msg-1", "second:msg-1"}, calls)
}

func TestDispatchMessageCreatedAbortsOnFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	registry := NewRegistry()
	registry.Add(&recordingHookset{name: "first", calls: &calls, err: boom})
	registry.Add(&recordingHookset{name: "second", calls: &calls})

	err := registry.DispatchMessageCreated(context.Background(), "msg-1")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrHookFailure.Code, appErr.Code)

	// The failing hookset blocks the rest of the chain.
	require.Equal(t, []string{"first:msg-1"}, calls)
}

func TestRemoveHookset(t *testing.T) {
	var calls []string
	first := &recordingHookset{name: "first", calls: &calls}
	second := &recordingHookset{name: "second", calls: &calls}

	registry := NewRegistry()
	registry.Add(first)
	registry.Add(second)
	registry.Remove(first)

	require.NoError(t, registry.DispatchMessageCreated(context.Background(), "msg-1"))
	require.Equal(t, []string{"second:msg-1"}, calls)
}
