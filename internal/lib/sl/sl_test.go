package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := sl.Err(errors.New("something went wrong"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, sl.OrDiscard(nil))

	log := slog.Default()
	assert.Same(t, log, sl.OrDiscard(log))
}
