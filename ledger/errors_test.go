package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindExtraction(t *testing.T) {
	err := errf(KindNotFound, "GetBatch", "batch '%s' does not exist", "B1")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindBadInput))
	assert.Equal(t, "GetBatch: batch 'B1' does not exist", err.Error())

	// Kinds survive wrapping.
	wrapped := fmt.Errorf("outer context: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := wrapf(KindCorrupt, "GetBatch", cause, "failed to read state")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "GetBatch: failed to read state: disk on fire", err.Error())
}
