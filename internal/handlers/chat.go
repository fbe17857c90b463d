package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jimsug/jolly-roger/internal/attachments"
	"github.com/jimsug/jolly-roger/internal/content"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/middleware"
	"github.com/jimsug/jolly-roger/internal/models"
	"github.com/jimsug/jolly-roger/internal/services"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
	"github.com/jimsug/jolly-roger/pkg/response"
	"github.com/jimsug/jolly-roger/pkg/validator"
)

// ChatHandler exposes the puzzle chat endpoints: messages, pins, threads,
// and reactions.
type ChatHandler struct {
	messages  *services.MessageService
	threads   *services.ThreadService
	reactions *services.ReactionService
	puzzles   directory.PuzzleLookup
	uploader  *attachments.Uploader
}

// NewChatHandler constructs a chat handler. The uploader may be nil when no
// storage provisioner is configured; attachment sends are then rejected.
func NewChatHandler(messages *services.MessageService, threads *services.ThreadService, reactions *services.ReactionService, puzzles directory.PuzzleLookup, uploader *attachments.Uploader) *ChatHandler {
	return &ChatHandler{
		messages:  messages,
		threads:   threads,
		reactions: reactions,
		puzzles:   puzzles,
		uploader:  uploader,
	}
}

type postMessageRequest struct {
	Content     json.RawMessage         `json:"content"`
	ParentID    *string                 `json:"parentId"`
	Attachments []stagedAttachmentInput `json:"attachments"`
}

type stagedAttachmentInput struct {
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	// Data is the base64-encoded file content.
	Data string `json:"data" validate:"required,base64"`
}

type setPinRequest struct {
	Pinned bool `json:"pinned"`
}

type toggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

// PostMessage appends a message to a puzzle's channel. Staged attachments
// are uploaded first; any upload failure aborts the send entirely.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	if h == nil || h.messages == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	puzzleID := strings.TrimSpace(c.Param("puzzleID"))
	if puzzleID == "" {
		response.Error(c, apperrors.NewBadRequest("puzzle id is required"))
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var payload postMessageRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid chat message payload"))
		return
	}

	var doc content.Document
	if len(payload.Content) > 0 {
		parsed, err := content.Parse(payload.Content)
		if err != nil {
			response.Error(c, err)
			return
		}
		doc = parsed
	}

	uploaded, err := h.uploadStaged(c, puzzleID, payload.Attachments)
	if err != nil {
		response.Error(c, err)
		return
	}

	message, err := h.messages.Append(requestContext(c), services.AppendMessageParams{
		PuzzleID:    puzzleID,
		Sender:      userID,
		Content:     doc,
		ParentID:    payload.ParentID,
		Attachments: uploaded,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, message)
}

func (h *ChatHandler) uploadStaged(c *gin.Context, puzzleID string, staged []stagedAttachmentInput) ([]models.Attachment, error) {
	if len(staged) == 0 {
		return nil, nil
	}
	if h.uploader == nil || h.puzzles == nil {
		return nil, apperrors.NewBadRequest("attachment storage is not configured")
	}

	puzzle, err := h.puzzles.FindPuzzle(requestContext(c), puzzleID)
	if err != nil {
		return nil, err
	}
	scope := attachments.UploadScope{HuntID: puzzle.HuntID, PuzzleID: puzzle.ID}

	pending := make([]attachments.PendingAttachment, 0, len(staged))
	for _, item := range staged {
		if err := validator.ValidateStruct(item); err != nil {
			return nil, apperrors.NewBadRequest(err.Error())
		}
		data, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			return nil, apperrors.NewBadRequest("attachment data must be base64 encoded")
		}
		pending = append(pending, attachments.PendingAttachment{
			Filename: item.Filename,
			MimeType: item.MimeType,
			Content:  data,
		})
	}
	return h.uploader.UploadAll(requestContext(c), scope, pending)
}

// ListMessages returns the channel's full history ordered by timestamp.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	if h == nil || h.messages == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	puzzleID := strings.TrimSpace(c.Param("puzzleID"))
	if puzzleID == "" {
		response.Error(c, apperrors.NewBadRequest("puzzle id is required"))
		return
	}

	rows, err := h.messages.List(requestContext(c), puzzleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// GetPin returns the channel's currently pinned message, or null.
func (h *ChatHandler) GetPin(c *gin.Context) {
	if h == nil || h.messages == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	puzzleID := strings.TrimSpace(c.Param("puzzleID"))
	if puzzleID == "" {
		response.Error(c, apperrors.NewBadRequest("puzzle id is required"))
		return
	}

	pinned, err := h.messages.CurrentPin(requestContext(c), puzzleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pinned)
}

// SetPin toggles a message's pin state.
func (h *ChatHandler) SetPin(c *gin.Context) {
	if h == nil || h.messages == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	messageID := strings.TrimSpace(c.Param("messageID"))
	if messageID == "" {
		response.Error(c, apperrors.NewBadRequest("message id is required"))
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var payload setPinRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid pin payload"))
		return
	}

	message, err := h.messages.SetPin(requestContext(c), messageID, payload.Pinned)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, message)
}

// Thread returns the bounded ancestor preview of a message.
func (h *ChatHandler) Thread(c *gin.Context) {
	if h == nil || h.threads == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	messageID := strings.TrimSpace(c.Param("messageID"))
	if messageID == "" {
		response.Error(c, apperrors.NewBadRequest("message id is required"))
		return
	}

	thread, err := h.threads.Resolve(requestContext(c), messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, thread)
}

// ListReactions returns the reaction summary of a message for the caller.
func (h *ChatHandler) ListReactions(c *gin.Context) {
	if h == nil || h.reactions == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	messageID := strings.TrimSpace(c.Param("messageID"))
	if messageID == "" {
		response.Error(c, apperrors.NewBadRequest("message id is required"))
		return
	}

	summary, err := h.reactions.Aggregate(requestContext(c), messageID, strings.TrimSpace(c.GetString(middleware.CtxUserIDKey)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// ToggleReaction applies or withdraws the caller's emoji reaction.
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	if h == nil || h.reactions == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	messageID := strings.TrimSpace(c.Param("messageID"))
	if messageID == "" {
		response.Error(c, apperrors.NewBadRequest("message id is required"))
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var payload toggleReactionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid reaction payload"))
		return
	}

	summary, err := h.reactions.Toggle(requestContext(c), messageID, userID, strings.TrimSpace(payload.Emoji))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
