// Package magiclink finds the newest magic-link URL mailed to an address
// among raw emails stored in S3.
package magiclink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/maildummy/s3-magiclink/internal/mailparse"
	"github.com/maildummy/s3-magiclink/internal/storage"
)

// ObjectStore lists and fetches stored messages.
type ObjectStore interface {
	List(ctx context.Context, bucket, prefix string) ([]storage.Object, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Result is the link found and the object it came from.
type Result struct {
	Link         string     `json:"link"`
	Key          string     `json:"key"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	Pattern      string     `json:"pattern"`
}

// Finder searches a bucket for a magic link. Candidates are processed one
// at a time, newest first, and the first hit wins.
type Finder struct {
	Store     ObjectStore
	Prefix    string
	Extractor *Extractor
	Logger    *slog.Logger

	// SkipUnreadable logs and skips objects that fail to download or parse
	// instead of aborting the search.
	SkipUnreadable bool
}

// Find returns the link from the newest message addressed to email.
func (f *Finder) Find(ctx context.Context, bucket, email string) (*Result, error) {
	bucket = strings.TrimSpace(bucket)
	email = strings.TrimSpace(email)
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email address is required", ErrInvalidInput)
	}

	logger := f.logger()
	prefix := f.Prefix

	objects, err := f.Store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w in bucket %s", ErrEmptyBucket, bucket)
	}
	logger.Debug("listed candidates", "bucket", bucket, "prefix", prefix, "count", len(objects))

	storage.SortNewestFirst(objects)

	for _, obj := range objects {
		msg, err := f.load(ctx, logger, bucket, obj)
		if err != nil {
			if f.SkipUnreadable && ctx.Err() == nil {
				logger.Warn("skipping unreadable object", "key", obj.Key, "err", err)
				continue
			}
			return nil, &RetrievalError{Key: obj.Key, Err: err}
		}

		if !MatchesRecipient(msg, email) {
			logger.Debug("recipient mismatch", "key", obj.Key, "recipients", msg.Recipients())
			continue
		}

		link, pattern, ok := f.Extractor.Extract(msg.Body())
		if !ok {
			logger.Debug("no link in message", "key", obj.Key, "subject", msg.Subject)
			continue
		}

		logger.Info("found magic link", "key", obj.Key, "pattern", pattern)
		return &Result{
			Link:         link,
			Key:          obj.Key,
			LastModified: obj.LastModified,
			Pattern:      pattern,
		}, nil
	}

	return nil, fmt.Errorf("%w for email %s in bucket %s", ErrNoMatch, email, bucket)
}

func (f *Finder) load(ctx context.Context, logger *slog.Logger, bucket string, obj storage.Object) (*mailparse.Message, error) {
	raw, err := f.Store.Get(ctx, bucket, obj.Key)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched candidate", "key", obj.Key, "size", humanize.Bytes(uint64(len(raw))), "age", age(obj.LastModified))

	msg, err := mailparse.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", obj.Key, err)
	}
	return msg, nil
}

func age(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return humanize.Time(*t)
}

func (f *Finder) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
