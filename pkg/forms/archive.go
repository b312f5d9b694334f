package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ObjectWriter stores a blob under key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ArchiveSink keeps a JSON copy of every submission in object storage.
type ArchiveSink struct {
	writer ObjectWriter
	prefix string
}

// NewArchiveSink creates a sink writing under prefix. An empty prefix
// defaults to "submissions".
func NewArchiveSink(writer ObjectWriter, prefix string) *ArchiveSink {
	if prefix == "" {
		prefix = "submissions"
	}
	return &ArchiveSink{writer: writer, prefix: prefix}
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Accepts(Kind) bool { return true }

func (s *ArchiveSink) Deliver(ctx context.Context, sub *Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return errors.Join(ErrArchiveWrite, err)
	}
	if err := s.writer.Put(ctx, s.Key(sub), body, "application/json"); err != nil {
		return errors.Join(ErrArchiveWrite, err)
	}
	return nil
}

// Key returns the object key for sub: prefix/yyyy/mm/dd/id.json.
func (s *ArchiveSink) Key(sub *Submission) string {
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, sub.ReceivedAt.UTC().Format("2006/01/02"), sub.ID)
}
