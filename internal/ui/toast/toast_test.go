package toast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/learnbell/internal/model"
)

func TestRender_Empty(t *testing.T) {
	assert.Empty(t, Render(nil, 80))
}

func TestRender_NewestOnTop(t *testing.T) {
	out := Render([]model.Toast{
		{ID: "a", Title: "First", Message: "one"},
		{ID: "b", Message: "only message"},
	}, 80)

	assert.Contains(t, out, "First")
	assert.Contains(t, out, "only message")
	assert.Less(t, strings.Index(out, "only message"), strings.Index(out, "First"))
}
