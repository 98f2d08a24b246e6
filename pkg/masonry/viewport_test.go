package masonry

import "testing"

func TestResizeNotifier(t *testing.T) {
	n := NewResizeNotifier()

	var a, b int
	unsubA := n.Subscribe(func() { a++ })
	n.Subscribe(func() { b++ })

	n.Notify()
	if a != 1 || b != 1 {
		t.Fatalf("after first notify a=%d b=%d, want 1 1", a, b)
	}

	unsubA()
	unsubA()
	if n.Len() != 1 {
		t.Errorf("Len = %d, want 1", n.Len())
	}

	n.Notify()
	if a != 1 || b != 2 {
		t.Errorf("after second notify a=%d b=%d, want 1 2", a, b)
	}
}

func TestResizeNotifierUnsubscribeFromCallback(t *testing.T) {
	n := NewResizeNotifier()

	calls := 0
	var unsub func()
	unsub = n.Subscribe(func() {
		calls++
		unsub()
	})

	n.Notify()
	n.Notify()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMemoryContainer(t *testing.T) {
	c := NewMemoryContainer(640)

	c.Mount(1, "<b>")
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (mount grows to index)", c.Len())
	}

	c.Position(1, Rect{X: 10, Y: 20, Width: 30, Height: 40})
	c.Position(7, Rect{X: 1})
	c.SetHeight(99)

	cards := c.Snapshot()
	if cards[0].Placed {
		t.Error("card 0 should not be placed")
	}
	if !cards[1].Placed || cards[1].Rect.Height != 40 || cards[1].Markup != "<b>" {
		t.Errorf("card 1 = %+v", cards[1])
	}

	cards[1].Markup = "changed"
	if c.Snapshot()[1].Markup != "<b>" {
		t.Error("Snapshot aliases container state")
	}

	c.Clear()
	if c.Len() != 0 || c.Height() != 0 {
		t.Errorf("after Clear: Len %d Height %v", c.Len(), c.Height())
	}
	if c.Width() != 640 {
		t.Errorf("Clear changed width to %v", c.Width())
	}
}
