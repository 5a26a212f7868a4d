package errors

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatches(t *testing.T) {
	err := Kind(ErrGeometryMismatch, `got %d bytes, want %d`, 3, 4)
	assert.True(t, Is(err, ErrGeometryMismatch))
	assert.False(t, Is(err, ErrMissingSnapshot))
	assert.Contains(t, err.Error(), `got 3 bytes, want 4`)
}

func TestWrapfKeepsCause(t *testing.T) {
	err := Wrapf(io.ErrUnexpectedEOF, ErrExternalTool, `decode %s`, `x.png`)
	assert.True(t, Is(err, ErrExternalTool))
	assert.True(t, Is(err, io.ErrUnexpectedEOF))
	assert.Nil(t, Wrapf(nil, ErrExternalTool, `unused`))
}

func TestNewNil(t *testing.T) {
	assert.Nil(t, New(nil))
	assert.Contains(t, Stack(New(`boom`)), `boom`)
}
