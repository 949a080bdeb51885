package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policyLabels = []string{"new", "saved"}

func TestConsole_NonTTY_UsesPlainPrompt(t *testing.T) {
	in := strings.NewReader("2\n")
	out := &bytes.Buffer{}
	c := New(NewConfig(in, out, WithNoColor(true)))

	assert.False(t, c.Interactive())

	got, err := c.Choose(context.Background(), "Import new backgrounds as", policyLabels)
	require.NoError(t, err)
	assert.Equal(t, "saved", got)
	assert.Contains(t, out.String(), "Import new backgrounds as")
	assert.Contains(t, out.String(), "1) new")
	assert.Contains(t, out.String(), "2) saved")
}

func TestConsole_Choose_NoLabels(t *testing.T) {
	c := New(NewConfig(strings.NewReader(""), &bytes.Buffer{}))
	_, err := c.Choose(context.Background(), "t", nil)
	assert.Error(t, err)
}

func TestPlainChoose_AcceptsLabelText(t *testing.T) {
	got, err := plainChoose(context.Background(), strings.NewReader("NEW\n"), &bytes.Buffer{}, "t", policyLabels)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestPlainChoose_RepromptsOnInvalid(t *testing.T) {
	out := &bytes.Buffer{}
	got, err := plainChoose(context.Background(), strings.NewReader("7\nmaybe\n\n1\n"), out, "t", policyLabels)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Equal(t, 3, strings.Count(out.String(), "Invalid choice."))
}

func TestPlainChoose_EOFIsNoChoice(t *testing.T) {
	_, err := plainChoose(context.Background(), strings.NewReader("x\n"), &bytes.Buffer{}, "t", policyLabels)
	assert.ErrorIs(t, err, ErrNoChoice)

	_, err = plainChoose(context.Background(), nil, &bytes.Buffer{}, "t", policyLabels)
	assert.ErrorIs(t, err, ErrNoChoice)
}

type blockingReader struct{ ch chan struct{} }

func (r blockingReader) Read([]byte) (int, error) {
	<-r.ch
	return 0, nil
}

func TestPlainChoose_ContextCancelled(t *testing.T) {
	r := blockingReader{ch: make(chan struct{})}
	defer close(r.ch)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := plainChoose(ctx, r, &bytes.Buffer{}, "t", policyLabels)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConsole_CatalogChanged_PrintsAndNotifies(t *testing.T) {
	out := &bytes.Buffer{}
	c := New(NewConfig(nil, out, WithNoColor(true)))

	var got []string
	c.OnCatalogChanged(func(s string) { got = append(got, s) })

	c.CatalogChanged("2 added, 1 removed")

	assert.Contains(t, out.String(), "Catalog updated: 2 added, 1 removed")
	assert.Equal(t, []string{"2 added, 1 removed"}, got)
}

func TestIsTTY_Buffer(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestGetStyles_NoColorRendersPlain(t *testing.T) {
	s := GetStyles(true)
	assert.Equal(t, "saved", s.Selected.Render("saved"))
}

func keyPress(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestChoiceModel_Navigation(t *testing.T) {
	m := newChoiceModel("Import as", policyLabels, NoColorStyles())

	view := m.View()
	assert.Contains(t, view, "Import as")
	assert.Contains(t, view, "> new")

	m.Update(keyPress(tea.KeyDown))
	assert.Equal(t, 1, m.cursor)
	m.Update(keyPress(tea.KeyDown))
	assert.Equal(t, 1, m.cursor, "cursor stops at last option")
	assert.Contains(t, m.View(), "> saved")

	m.Update(keyPress(tea.KeyUp))
	m.Update(keyPress(tea.KeyUp))
	assert.Equal(t, 0, m.cursor)

	_, cmd := m.Update(keyPress(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, "new", m.chosen)
	assert.Empty(t, m.View())
}

func TestChoiceModel_Cancel(t *testing.T) {
	m := newChoiceModel("Import as", policyLabels, NoColorStyles())
	_, cmd := m.Update(keyPress(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.True(t, m.cancelled)
	assert.Empty(t, m.chosen)
}
