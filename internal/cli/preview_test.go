package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dailymemedigest/memefactory/pkg/masonry"
)

func TestDrawCards(t *testing.T) {
	cards := []masonry.Card{
		{Index: 0, Markup: "drake", Placed: true, Rect: masonry.Rect{X: 0, Y: 0, Width: 100, Height: 100}},
		{Index: 1, Markup: "a very long label", Placed: true, Rect: masonry.Rect{X: 120, Y: 0, Width: 60, Height: 60}},
		{Index: 2, Markup: "hidden", Placed: false},
	}
	rows := drawCards(cards, 20, 6)

	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if got := []rune(rows[0]); got[0] != '╭' || got[9] != '╮' {
		t.Errorf("top edge = %q", rows[0])
	}
	if got := []rune(rows[4]); got[0] != '╰' || got[9] != '╯' {
		t.Errorf("bottom edge = %q", rows[4])
	}
	if !strings.HasPrefix(rows[1], "│drake") {
		t.Errorf("label row = %q", rows[1])
	}
	// The second card is 6 cells wide: 4 cells of label room.
	if !strings.Contains(rows[1], "│a ve│") {
		t.Errorf("truncated label row = %q", rows[1])
	}
	if strings.Contains(strings.Join(rows, "\n"), "hidden") {
		t.Error("unplaced card was drawn")
	}
}

func TestPreviewReflowsOnResize(t *testing.T) {
	items := make([]masonry.Item, len(demoAspects))
	for i, s := range demoAspects {
		items[i] = masonry.Item{Size: s, Data: "card"}
	}
	c := New(&bytes.Buffer{}, LogInfo)
	m := newPreviewModel(context.Background(), masonry.DefaultConfig(), items, c)
	defer m.grid.Destroy()

	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init should wait for reflows")
	}

	// Terminal of 80 cells is an 800 px container: three 250 px columns.
	if _, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24}); cmd != nil {
		t.Error("resize should not return a command")
	}
	deadline := time.After(2 * time.Second)
	for m.layout.Columns != 3 {
		msg := make(chan tea.Msg, 1)
		go func() { msg <- m.waitReflow() }()
		select {
		case got := <-msg:
			if _, cmd := m.Update(got); cmd == nil {
				t.Fatal("reflow should keep listening")
			}
		case <-deadline:
			t.Fatalf("no reflow to 3 columns; last layout has %d", m.layout.Columns)
		}
	}

	if len(m.cards) != len(items) {
		t.Errorf("cards = %d, want %d", len(m.cards), len(items))
	}
	view := m.View()
	if !strings.Contains(view, "3 columns") {
		t.Errorf("status line missing from view:\n%s", view)
	}
	if lines := strings.Count(view, "\n"); lines != 23 {
		t.Errorf("view has %d line breaks, want 23", lines)
	}
}

func TestPreviewScroll(t *testing.T) {
	m := &previewModel{height: 11, layout: masonry.Layout{Height: 400}}
	// 400 px is 20 rows; 10 fit.
	for range 15 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.scroll != 10 {
		t.Errorf("scroll = %d, want 10", m.scroll)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	if m.scroll != 0 {
		t.Errorf("scroll after page up = %d, want 0", m.scroll)
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}
