package soundbite_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
)

func TestValidationError(t *testing.T) {
	v := soundbite.NewValidationError("title", "can't be blank")
	v.Add("title", "is too long")
	v.Add("body", "can't be blank")

	assert.Equal(t, []string{"can't be blank", "is too long"}, v.Fields["title"])
	assert.Equal(t, "validation failed: body can't be blank; title can't be blank, is too long", v.Error())
}

func TestAsValidationError(t *testing.T) {
	v := soundbite.NewValidationError("title", "can't be blank")
	wrapped := fmt.Errorf("rejected: %w", v)

	got, ok := soundbite.AsValidationError(wrapped)
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok = soundbite.AsValidationError(soundbite.ErrPostNotFound)
	assert.False(t, ok)
}
