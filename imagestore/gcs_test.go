package imagestore

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

type objectWriter struct {
	bytes.Buffer
	closed bool
}

func (w *objectWriter) Close() error {
	w.closed = true
	return nil
}

func TestCommitClosesCompleteUploads(t *testing.T) {
	w := &objectWriter{}
	aborted := false

	err := commit(w, strings.NewReader("pixels"), func() { aborted = true })
	assert.NoError(t, err)
	assert.True(t, w.closed)
	assert.False(t, aborted)
	assert.Equal(t, "pixels", w.String())
}

func TestCommitAbortsTruncatedUploads(t *testing.T) {
	w := &objectWriter{}
	aborted := false
	body := io.MultiReader(strings.NewReader("pix"), iotest.ErrReader(errors.New("connection reset")))

	err := commit(w, body, func() { aborted = true })
	assert.EqualError(t, err, "connection reset")
	assert.True(t, aborted)
	assert.False(t, w.closed, "closing would store the partial object")
}
