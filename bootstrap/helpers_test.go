package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/JGorski-cyber/event-sentinel/ingest"

	"github.com/stretchr/testify/assert"
)

func TestClassifySkip(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", fmt.Errorf("a.log: %w", ingest.ErrEmptyInput), SkipEmpty},
		{"unknown kind", fmt.Errorf("%w: could not detect", ingest.ErrUnknownSourceKind), SkipUnknownKind},
		{"missing", fmt.Errorf("failed to open: %w", os.ErrNotExist), SkipUnreadable},
		{"permission", fmt.Errorf("failed to open: %w", os.ErrPermission), SkipUnreadable},
		{"path error", &os.PathError{Op: "read", Path: "a.log", Err: errors.New("is a directory")}, SkipUnreadable},
		{"parse", errors.New("invalid event XML: EOF"), SkipParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySkip(tt.err))
		})
	}
}
