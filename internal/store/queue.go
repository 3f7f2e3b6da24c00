package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mmcdole/cadence/internal/domain"
	"github.com/samber/lo"
)

func newSlotID() string {
	return uuid.NewString()
}

// Read returns the persisted queue rows in order
func (s *Store) Read(ctx context.Context) ([]domain.QueueRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, _ := s.loadRows()
	return rows, nil
}

// Cursor returns the persisted current index, or domain.NoIndex
func (s *Store) Cursor(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return domain.NoIndex, err
	}
	cursor, ok := load[int](s, queueCursor)
	if !ok {
		return domain.NoIndex, nil
	}
	return cursor, nil
}

// SetCursor persists the current index
func (s *Store) SetCursor(ctx context.Context, index int) error {
	return s.mutate(ctx, func(rows []domain.QueueRow, cursor int) ([]domain.QueueRow, int, error) {
		if index != domain.NoIndex && (index < 0 || index >= len(rows)) {
			return nil, 0, fmt.Errorf("set cursor %d of %d: %w", index, len(rows), domain.ErrIndexOutOfRange)
		}
		return rows, index, nil
	})
}

// Replace swaps the whole queue. The cursor is reset to the first row, or
// NoIndex when rows is empty.
func (s *Store) Replace(ctx context.Context, rows []domain.QueueRow) error {
	return s.mutate(ctx, func(_ []domain.QueueRow, _ int) ([]domain.QueueRow, int, error) {
		next := s.assignSlots(rows)
		if len(next) == 0 {
			return next, domain.NoIndex, nil
		}
		return next, 0, nil
	})
}

// Insert places rows before position index; index == len appends.
// The cursor keeps pointing at the same row.
func (s *Store) Insert(ctx context.Context, index int, rows []domain.QueueRow) error {
	return s.mutate(ctx, func(cur []domain.QueueRow, cursor int) ([]domain.QueueRow, int, error) {
		if index < 0 || index > len(cur) {
			return nil, 0, fmt.Errorf("insert at %d of %d: %w", index, len(cur), domain.ErrIndexOutOfRange)
		}
		added := s.assignSlots(rows)
		next := make([]domain.QueueRow, 0, len(cur)+len(added))
		next = append(next, cur[:index]...)
		next = append(next, added...)
		next = append(next, cur[index:]...)
		if cursor != domain.NoIndex && index <= cursor {
			cursor += len(added)
		}
		if cursor == domain.NoIndex && len(next) > 0 {
			cursor = 0
		}
		return next, cursor, nil
	})
}

// Move relocates one row. The cursor follows the row it pointed at.
func (s *Store) Move(ctx context.Context, from, to int) error {
	return s.mutate(ctx, func(cur []domain.QueueRow, cursor int) ([]domain.QueueRow, int, error) {
		n := len(cur)
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, 0, fmt.Errorf("move %d -> %d of %d: %w", from, to, n, domain.ErrIndexOutOfRange)
		}
		if cursor != domain.NoIndex {
			cursor = domain.ShiftIndex(cursor, from, to)
		}
		return domain.MoveItem(cur, from, to), cursor, nil
	})
}

// Remove deletes the row at index. Removing the current row leaves the
// cursor on its successor (or the new last row).
func (s *Store) Remove(ctx context.Context, index int) error {
	return s.mutate(ctx, func(cur []domain.QueueRow, cursor int) ([]domain.QueueRow, int, error) {
		if index < 0 || index >= len(cur) {
			return nil, 0, fmt.Errorf("remove %d of %d: %w", index, len(cur), domain.ErrIndexOutOfRange)
		}
		next := append(append([]domain.QueueRow{}, cur[:index]...), cur[index+1:]...)
		switch {
		case len(next) == 0:
			cursor = domain.NoIndex
		case cursor > index:
			cursor--
		case cursor >= len(next):
			cursor = len(next) - 1
		}
		return next, cursor, nil
	})
}

// Observe delivers the row list after every committed write. A slow
// reader only ever sees the latest list.
func (s *Store) Observe() (<-chan []domain.QueueRow, func()) {
	ch := make(chan []domain.QueueRow, 1)

	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = ch
	if rows, ok := s.loadRows(); ok {
		ch <- rows
	}
	s.obsMu.Unlock()

	return ch, func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if c, ok := s.observers[id]; ok {
			close(c)
			delete(s.observers, id)
		}
	}
}

// mutate runs one serialized read-modify-write cycle and notifies
// observers after the write commits.
func (s *Store) mutate(ctx context.Context, fn func(rows []domain.QueueRow, cursor int) ([]domain.QueueRow, int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, _ := s.loadRows()
	cursor, ok := load[int](s, queueCursor)
	if !ok {
		cursor = domain.NoIndex
	}

	next, nextCursor, err := fn(rows, cursor)
	if err != nil {
		return err
	}

	if err := s.save(
		entry{queueRows, next},
		entry{queueCursor, nextCursor},
	); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}

	s.publish(next)
	return nil
}

func (s *Store) loadRows() ([]domain.QueueRow, bool) {
	return load[[]domain.QueueRow](s, queueRows)
}

func (s *Store) assignSlots(rows []domain.QueueRow) []domain.QueueRow {
	return lo.Map(rows, func(r domain.QueueRow, _ int) domain.QueueRow {
		if r.SlotID == "" {
			r.SlotID = s.newSlotID()
		}
		return r
	})
}

func (s *Store) publish(rows []domain.QueueRow) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	for _, ch := range s.observers {
		snapshot := append([]domain.QueueRow(nil), rows...)
		select {
		case ch <- snapshot:
		default:
			// Drop the stale list so the reader sees the latest one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

var (
	_ domain.QueueRepository = (*Store)(nil)
	_ domain.LyricsCache     = (*Store)(nil)
	_ domain.LibraryCache    = (*Store)(nil)
)
