package services

import (
	"context"
	"errors"

	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// maxThreadDepth caps how many ancestors a thread preview resolves per
// request. Deeper chains are paged via NextParentID.
const maxThreadDepth = 3

// Thread is a bounded slice of a reply chain, oldest ancestor first.
type Thread struct {
	// Ancestors holds up to maxThreadDepth parents of the requested
	// message, ordered oldest first.
	Ancestors []models.ChatMessage `json:"ancestors"`

	// HasMoreParents reports that the chain continues above Ancestors[0].
	HasMoreParents bool `json:"hasMoreParents"`

	// NextParentID is the id to resolve from to continue the walk. Empty
	// when HasMoreParents is false.
	NextParentID string `json:"nextParentId,omitempty"`
}

// ThreadService resolves reply chains for thread previews.
type ThreadService struct {
	messages *MessageService
}

// NewThreadService constructs a thread resolver over the message store.
func NewThreadService(messages *MessageService) (*ThreadService, error) {
	if messages == nil {
		return nil, errors.New("thread service: message service is required")
	}
	return &ThreadService{messages: messages}, nil
}

// Resolve walks the parent chain of a message, collecting up to
// maxThreadDepth ancestors. A dangling parent reference ends the walk
// quietly with whatever was collected so far.
func (s *ThreadService) Resolve(ctx context.Context, messageID string) (*Thread, error) {
	ctx = ensureContext(ctx)

	message, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}

	thread := &Thread{}

	parentID := message.ParentID
	for depth := 0; depth < maxThreadDepth && parentID != nil; depth++ {
		parent, err := s.messages.Get(ctx, *parentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				parentID = nil
				break
			}
			return nil, err
		}
		// Collected newest first; reversed below.
		thread.Ancestors = append(thread.Ancestors, *parent)
		parentID = parent.ParentID
	}

	if parentID != nil {
		thread.HasMoreParents = true
		thread.NextParentID = *parentID
	}

	for i, j := 0, len(thread.Ancestors)-1; i < j; i, j = i+1, j-1 {
		thread.Ancestors[i], thread.Ancestors[j] = thread.Ancestors[j], thread.Ancestors[i]
	}

	return thread, nil
}
