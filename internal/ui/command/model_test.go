package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Command
		ok    bool
	}{
		{"refresh", Refresh, true},
		{"  Read   ALL ", ReadAll, true},
		{"mark all read", ReadAll, true},
		{"reconnect", Reconnect, true},
		{"q", Quit, true},
		{"configure", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func typeInto(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_EnterEmitsCommand(t *testing.T) {
	m := typeInto(New(60, 10), "reconnect")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg(Reconnect), cmd())
}

func TestModel_EnterReportsUnknown(t *testing.T) {
	m := typeInto(New(60, 10), "nope")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, UnknownMsg("nope"), cmd())
}
