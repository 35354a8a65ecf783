// Package archive keeps the original bytes of uploaded documents in an S3
// compatible bucket. Archiving is optional; Nop is used when no bucket is
// configured.
package archive

import (
	"context"
	"path"
	"strings"
)

type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ChatPrefix is the key prefix of every object archived for a chat.
func ChatPrefix(chatID string) string {
	return "chats/" + chatID + "/"
}

// Key returns chats/{chat_id}/{document_id}/{filename}. Directory parts of
// the filename are dropped.
func Key(chatID, documentID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return ChatPrefix(chatID) + documentID + "/" + name
}

type Nop struct{}

func (Nop) Put(context.Context, string, []byte, string) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error        { return nil }
