package bootstrap

import (
	"errors"
	"io/fs"

	"github.com/JGorski-cyber/event-sentinel/ingest"
)

// Reasons a file is skipped, used as the metrics label
const (
	SkipUnreadable   = "unreadable"
	SkipEmpty        = "empty"
	SkipUnknownKind  = "unknown_kind"
	SkipParseFailure = "parse_error"
	SkipPanic        = "panic"
)

// ClassifySkip maps a per-file error to its skip reason
func ClassifySkip(err error) string {
	switch {
	case errors.Is(err, ingest.ErrEmptyInput):
		return SkipEmpty
	case errors.Is(err, ingest.ErrUnknownSourceKind):
		return SkipUnknownKind
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return SkipUnreadable
	default:
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return SkipUnreadable
		}
		return SkipParseFailure
	}
}
