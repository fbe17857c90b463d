// Package hooks provides the in-process event bus dispatched after chat and
// puzzle lifecycle events. Hooksets are registered in order at process start
// and run strictly sequentially, so later hooksets observe the side effects
// of earlier ones.
package hooks

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jimsug/jolly-roger/pkg/logger"
	"github.com/jimsug/jolly-roger/pkg/metrics"

	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// Hookset is the base capability marker. A hookset opts into events by
// additionally implementing the corresponding hook interface below.
type Hookset interface {
	Name() string
}

// MessageCreatedHook is invoked after a chat message has been persisted.
type MessageCreatedHook interface {
	OnMessageCreated(ctx context.Context, messageID string) error
}

// PuzzleCreatedHook is invoked by the puzzle subsystem after puzzle creation.
type PuzzleCreatedHook interface {
	OnPuzzleCreated(ctx context.Context, puzzleID string) error
}

// PuzzleSolvedHook is invoked by the puzzle subsystem when an answer is accepted.
type PuzzleSolvedHook interface {
	OnPuzzleSolved(ctx context.Context, puzzleID, answer string) error
}

// PuzzleNoLongerSolvedHook is invoked when an accepted answer is retracted.
type PuzzleNoLongerSolvedHook interface {
	OnPuzzleNoLongerSolved(ctx context.Context, puzzleID, answer string) error
}

// Registry holds the ordered hookset list. It is constructed explicitly at
// startup and injected into the message-append path; there is no global
// instance.
type Registry struct {
	hooksets []Hookset
	log      *zap.Logger
}

// NewRegistry constructs an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{log: logger.WithModule("hooks")}
}

// Add appends a hookset to the dispatch order.
func (r *Registry) Add(hs Hookset) {
	if hs == nil {
		return
	}
	r.hooksets = append(r.hooksets, hs)
}

// Remove deletes a previously registered hookset.
func (r *Registry) Remove(hs Hookset) {
	for i, registered := range r.hooksets {
		if registered == hs {
			r.hooksets = append(r.hooksets[:i], r.hooksets[i+1:]...)
			return
		}
	}
}

// DispatchMessageCreated runs every hookset that handles message creation,
// one after another. A failing hookset aborts the remainder of the chain.
func (r *Registry) DispatchMessageCreated(ctx context.Context, messageID string) error {
	for _, hs := range r.hooksets {
		hook, ok := hs.(MessageCreatedHook)
		if !ok {
			continue
		}
		if err := hook.OnMessageCreated(ctx, messageID); err != nil {
			metrics.HookDispatches.WithLabelValues("error").Inc()
			r.log.Error("message-created hook failed",
				zap.String("hookset", hs.Name()),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
			return hookFailure(hs.Name(), err)
		}
	}
	metrics.HookDispatches.WithLabelValues("ok").Inc()
	return nil
}

// DispatchPuzzleCreated runs puzzle-created hooksets sequentially.
func (r *Registry) DispatchPuzzleCreated(ctx context.Context, puzzleID string) error {
	for _, hs := range r.hooksets {
		hook, ok := hs.(PuzzleCreatedHook)
		if !ok {
			continue
		}
		if err := hook.OnPuzzleCreated(ctx, puzzleID); err != nil {
			return hookFailure(hs.Name(), err)
		}
	}
	return nil
}

// DispatchPuzzleSolved runs puzzle-solved hooksets sequentially.
func (r *Registry) DispatchPuzzleSolved(ctx context.Context, puzzleID, answer string) error {
	for _, hs := range r.hooksets {
		hook, ok := hs.(PuzzleSolvedHook)
		if !ok {
			continue
		}
		if err := hook.OnPuzzleSolved(ctx, puzzleID, answer); err != nil {
			return hookFailure(hs.Name(), err)
		}
	}
	return nil
}

// DispatchPuzzleNoLongerSolved runs answer-retraction hooksets sequentially.
func (r *Registry) DispatchPuzzleNoLongerSolved(ctx context.Context, puzzleID, answer string) error {
	for _, hs := range r.hooksets {
		hook, ok := hs.(PuzzleNoLongerSolvedHook)
		if !ok {
			continue
		}
		if err := hook.OnPuzzleNoLongerSolved(ctx, puzzleID, answer); err != nil {
			return hookFailure(hs.Name(), err)
		}
	}
	return nil
}

func hookFailure(hookset string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.ErrHookFailure.Code {
		return err
	}
	return apperrors.ErrHookFailure.WithInternal(err)
}
