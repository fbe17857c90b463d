package content

import (
	"encoding/json"
	"strings"

	"github.com/forPelevin/gomoji"

	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// NodeType discriminates the chat message content node variants.
type NodeType string

const (
	NodeText        NodeType = "text"
	NodeMention     NodeType = "mention"
	NodeRoleMention NodeType = "roleMention"
	NodeImage       NodeType = "image"
	NodePuzzleLink  NodeType = "puzzleLink"
)

// Node is one element of a message document. Exactly one variant is
// populated, selected by Type. Text nodes omit the type field on the wire.
type Node struct {
	Type     NodeType `json:"type,omitempty"`
	Text     string   `json:"text,omitempty"`
	UserID   string   `json:"userId,omitempty"`
	RoleID   string   `json:"roleId,omitempty"`
	URL      string   `json:"url,omitempty"`
	PuzzleID string   `json:"puzzleId,omitempty"`
}

// TextNode builds a plain text node.
func TextNode(text string) Node {
	return Node{Type: NodeText, Text: text}
}

// MentionNode builds an @-mention node referencing a user.
func MentionNode(userID string) Node {
	return Node{Type: NodeMention, UserID: userID}
}

// IsText reports whether the node is a text node. Nodes without an explicit
// type are treated as text, matching the wire format where plain text nodes
// carry only a "text" key.
func (n Node) IsText() bool {
	return n.Type == NodeText || n.Type == ""
}

// IsMention reports whether the node is a well-formed user mention.
// Mention nodes missing a user id are ignored rather than rejected.
func (n Node) IsMention() bool {
	return n.Type == NodeMention && n.UserID != ""
}

// Document is the immutable content of a chat message.
type Document struct {
	Type     string `json:"type"`
	Children []Node `json:"children"`
}

// NewDocument builds a message document from the supplied nodes.
func NewDocument(children ...Node) Document {
	return Document{Type: "message", Children: children}
}

// EmptyTextDocument is the substitute content for attachment-only messages.
func EmptyTextDocument() Document {
	return NewDocument(TextNode(""))
}

// Parse decodes a wire-format document. Unknown node types survive decoding
// (they render as empty text downstream) so that a malformed node never
// poisons the whole message.
func Parse(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, apperrors.NewValidation("content is not a valid message document").WithInternal(err)
	}
	if doc.Type != "message" {
		return Document{}, apperrors.NewValidation("content document type must be \"message\"")
	}
	return doc, nil
}

// Encode serialises the document to its wire format.
func (d Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Validate checks the document shape. Documents with no children are only
// acceptable when the caller substitutes EmptyTextDocument, which Append
// does for attachment-only messages.
func (d Document) Validate() error {
	if d.Type != "message" {
		return apperrors.NewValidation("content document type must be \"message\"")
	}
	if len(d.Children) == 0 {
		return apperrors.NewValidation("content children must not be empty")
	}
	return nil
}

// IsEmpty reports whether the document carries no meaningful content.
func (d Document) IsEmpty() bool {
	for _, child := range d.Children {
		if child.IsText() {
			if strings.TrimSpace(child.Text) != "" {
				return false
			}
			continue
		}
		return false
	}
	return true
}

// Flatten concatenates the text node contents. Non-text nodes contribute a
// single space so a mention between two words keeps them split when the
// result is matched against dingwords.
func (d Document) Flatten() string {
	var b strings.Builder
	for _, child := range d.Children {
		if child.IsText() {
			b.WriteString(child.Text)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Mentions returns the user ids referenced by mention nodes, in document
// order. Malformed mention nodes are skipped.
func (d Document) Mentions() []string {
	var ids []string
	for _, child := range d.Children {
		if child.IsMention() {
			ids = append(ids, child.UserID)
		}
	}
	return ids
}

// IsReaction reports whether the document is an emoji reaction body:
// a single non-empty text child starting with an emoji code point.
// The parent anchor requirement is checked by the caller.
func (d Document) IsReaction() bool {
	if len(d.Children) != 1 {
		return false
	}
	child := d.Children[0]
	if !child.IsText() || child.Text == "" {
		return false
	}
	first := []rune(child.Text)[0]
	return gomoji.ContainsEmoji(string(first))
}

// ReactionEmoji returns the emoji text of a reaction document.
// Valid only when IsReaction reports true.
func (d Document) ReactionEmoji() string {
	if len(d.Children) == 0 {
		return ""
	}
	return d.Children[0].Text
}
