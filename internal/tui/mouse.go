package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// dragSlop is how far, in cells, the pointer moves before a press on a
// queue row turns into a drag or a swipe
const dragSlop = 1

// handleMouseMsg turns pointer drags on the queue pane into gestures:
// vertical motion carries the row, horizontal motion swipes it away
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.moveCursor(1)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.queueFilter != nil {
			return m, nil
		}
		idx, ok := m.layout.queueRowAt(msg.X, msg.Y, m.queueCursor, len(m.rows))
		if !ok {
			return m, nil
		}
		m.pane = PaneQueue
		m.queueCursor = idx
		m.press = &mousePress{x: msg.X, y: msg.Y, index: idx}
		return m, nil

	case tea.MouseActionMotion:
		return m.handlePointerMotion(msg), nil

	case tea.MouseActionRelease:
		return m.handlePointerRelease()
	}
	return m, nil
}

func (m Model) handlePointerMotion(msg tea.MouseMsg) Model {
	p := m.press
	if p == nil {
		return m
	}
	dx, dy := msg.X-p.x, msg.Y-p.y

	switch {
	case m.gesture != nil:
		// Rows keep their screen position while hovering, so the target is
		// the origin shifted by the vertical travel
		m.gesture.Hover(p.index + dy)
		m.queueCursor = m.gesture.Target()
		m.refreshRows()

	case p.swipe != nil:
		p.swipe.Drag(float64(dx))

	case abs(dy) >= dragSlop && abs(dy) >= abs(dx):
		g, err := m.deps.Queue.Begin(p.index)
		if err != nil {
			m.err = err
			m.press = nil
			return m
		}
		m.gesture = g
		g.Hover(p.index + dy)
		m.queueCursor = g.Target()
		m.refreshRows()

	case abs(dx) > dragSlop:
		s, err := m.deps.Queue.BeginSwipe(p.index)
		if err != nil {
			m.err = err
			m.press = nil
			return m
		}
		p.swipe = s
		s.Drag(float64(dx))
	}
	return m
}

func (m Model) handlePointerRelease() (tea.Model, tea.Cmd) {
	p := m.press
	m.press = nil
	switch {
	case m.gesture != nil:
		g := m.gesture
		m.gesture = nil
		return m, commitGestureCmd(g)
	case p != nil && p.swipe != nil:
		p.swipe.Release()
		if p.swipe.Armed() {
			m.swipe = p.swipe
			m.status = "removing row, u to undo"
		}
	}
	return m, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
