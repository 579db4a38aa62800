package ordering

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
)

// NextOrder returns the order for a task appended to group: one past the
// largest existing order, or 0 for an empty group.
func NextOrder(group []domain.Task) int {
	next := 0
	for _, t := range group {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// NextOrderIn is NextOrder over the tasks of a single lane.
func NextOrderIn(tasks []domain.Task, lane domain.TaskStatus) int {
	next := 0
	for _, t := range tasks {
		if t.Status == lane && t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// Compare is the in-lane ordering: ascending order, then newest first, then id.
// It matches the order a fresh server listing returns within a lane.
func Compare(a, b domain.Task) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// CompareBoard orders tasks across the whole board: by lane, then Compare.
func CompareBoard(a, b domain.Task) int {
	if c := cmp.Compare(a.Status.Rank(), b.Status.Rank()); c != 0 {
		return c
	}
	return Compare(a, b)
}

// Sort returns a copy of tasks in board order.
func Sort(tasks []domain.Task) []domain.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, CompareBoard)
	return out
}

// Group returns the tasks of one lane in display order.
func Group(tasks []domain.Task, lane domain.TaskStatus) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		if t.Status == lane {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, Compare)
	return out
}

// Normalize re-ranks every lane to the contiguous sequence 0..n-1, keeping
// the current display order. Only tasks whose order changed are returned.
func Normalize(tasks []domain.Task) []domain.Task {
	var lanes []domain.TaskStatus
	seen := make(map[domain.TaskStatus]bool)
	for _, t := range tasks {
		if !seen[t.Status] {
			seen[t.Status] = true
			lanes = append(lanes, t.Status)
		}
	}

	var changed []domain.Task
	for _, lane := range lanes {
		for i, t := range Group(tasks, lane) {
			if t.Order != i {
				t.Order = i
				changed = append(changed, t)
			}
		}
	}
	return changed
}

// ApplyUpdates returns a copy of tasks with the given positions overlaid.
// Updates for unknown ids are ignored.
func ApplyUpdates(tasks []domain.Task, updates []domain.TaskPosition) []domain.Task {
	out := slices.Clone(tasks)
	if len(updates) == 0 {
		return out
	}
	idx := indexByID(out)
	for _, u := range updates {
		if i, ok := idx[u.ID]; ok {
			out[i].Status = u.Status
			out[i].Order = u.Order
		}
	}
	return out
}

// Overlay is ApplyUpdates for full task values: matching ids are replaced by
// the given tasks' status and order.
func Overlay(tasks []domain.Task, changed []domain.Task) []domain.Task {
	updates := make([]domain.TaskPosition, len(changed))
	for i, t := range changed {
		updates[i] = t.Position()
	}
	return ApplyUpdates(tasks, updates)
}

func indexByID(tasks []domain.Task) map[uuid.UUID]int {
	idx := make(map[uuid.UUID]int, len(tasks))
	for i, t := range tasks {
		idx[t.ID] = i
	}
	return idx
}
