package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/jimsug/jolly-roger/internal/content"
)

func mustEncode(t *testing.T, doc content.Document) datatypes.JSON {
	t.Helper()
	raw, err := doc.Encode()
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func TestChatMessageIsReaction(t *testing.T) {
	parent := "msg-parent"

	reaction := ChatMessage{
		ParentID: &parent,
		Content:  mustEncode(t, content.NewDocument(content.TextNode("👍"))),
	}
	require.True(t, reaction.IsReaction())

	reply := ChatMessage{
		ParentID: &parent,
		Content:  mustEncode(t, content.NewDocument(content.TextNode("agreed"))),
	}
	require.False(t, reply.IsReaction())

	topLevel := ChatMessage{
		Content: mustEncode(t, content.NewDocument(content.TextNode("👍"))),
	}
	require.False(t, topLevel.IsReaction(), "reactions must be anchored to a parent")
}

func TestChatMessageAttachmentList(t *testing.T) {
	msg := ChatMessage{
		Attachments: datatypes.JSON(`[{"url":"https://files/x.png","filename":"x.png","mimeType":"image/png","size":123}]`),
	}
	list := msg.AttachmentList()
	require.Len(t, list, 1)
	require.Equal(t, "x.png", list[0].Filename)
	require.EqualValues(t, 123, list[0].Size)

	require.Nil(t, (&ChatMessage{}).AttachmentList())
}

func TestUserListColumns(t *testing.T) {
	u := User{
		Hunts:     EncodeStringList([]string{"hunt-1", "hunt-2"}),
		Dingwords: EncodeStringList([]string{"launch", "codes"}),
	}

	require.Equal(t, []string{"hunt-1", "hunt-2"}, u.HuntIDs())
	require.Equal(t, []string{"launch", "codes"}, u.DingwordList())
	require.True(t, u.InHunt("hunt-2"))
	require.False(t, u.InHunt("hunt-3"))

	empty := User{}
	require.Nil(t, empty.HuntIDs())
	require.False(t, empty.InHunt("hunt-1"))
}

func TestChatMessageIsSystem(t *testing.T) {
	require.True(t, (&ChatMessage{Timestamp: time.Now()}).IsSystem())
	require.False(t, (&ChatMessage{Sender: "u-1"}).IsSystem())
}
