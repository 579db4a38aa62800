package ordering

import (
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
)

// DropTarget is where a dragged task was released: either onto another task
// or onto a lane's background. The zero value means "nowhere".
type DropTarget struct {
	TaskID uuid.UUID
	Lane   domain.TaskStatus
}

// OverTask targets another task.
func OverTask(id uuid.UUID) DropTarget {
	return DropTarget{TaskID: id}
}

// OverLane targets an empty column or column background.
func OverLane(lane domain.TaskStatus) DropTarget {
	return DropTarget{Lane: lane}
}

// IsZero reports whether the target identifies nothing.
func (d DropTarget) IsZero() bool {
	return d.TaskID == uuid.Nil && d.Lane == ""
}

// Result is the outcome of a reconciled drop.
type Result struct {
	// Status is the lane the active task ends in.
	Status domain.TaskStatus
	// Affected holds every task whose (status, order) changed, with its new
	// values. Empty for a no-op.
	Affected []domain.Task
}

// IsNoop reports whether the drop changes nothing.
func (r Result) IsNoop() bool {
	return len(r.Affected) == 0
}

// Updates returns the affected tasks as wire positions.
func (r Result) Updates() []domain.TaskPosition {
	out := make([]domain.TaskPosition, len(r.Affected))
	for i, t := range r.Affected {
		out[i] = t.Position()
	}
	return out
}

// Reconcile computes the new positions produced by dropping activeID on over.
//
// Dropping on a task moves the active task to that task's index in the
// destination lane (list move: remove, then insert at the index). Dropping on
// a lane appends. The destination lane is re-ranked 0..n-1 and, for a move
// across lanes, so is the source lane. Only tasks whose status or order
// differ from tasks are reported.
//
// Unknown ids, an empty target, a self drop, and a move to the same index in
// the same lane are all no-ops.
func Reconcile(tasks []domain.Task, activeID uuid.UUID, over DropTarget) Result {
	active, ok := find(tasks, activeID)
	if !ok {
		return Result{}
	}
	if over.IsZero() || over.TaskID == activeID {
		return Result{Status: active.Status}
	}

	target := over.Lane
	if over.TaskID != uuid.Nil {
		overTask, ok := find(tasks, over.TaskID)
		if !ok {
			return Result{Status: active.Status}
		}
		target = overTask.Status
	}
	if !target.Valid() {
		return Result{Status: active.Status}
	}

	dest := Group(tasks, target)
	from := position(dest, activeID)
	to := len(dest)
	switch {
	case over.TaskID != uuid.Nil:
		to = position(dest, over.TaskID)
	case from >= 0:
		to = len(dest) - 1
	}
	if from == to {
		return Result{Status: target}
	}
	if from >= 0 {
		dest = slices.Delete(dest, from, from+1)
	}

	moved := active
	moved.Status = target
	dest = slices.Insert(dest, to, moved)

	after := rank(dest)
	if active.Status != target {
		source := Group(tasks, active.Status)
		i := position(source, activeID)
		source = slices.Delete(source, i, i+1)
		after = append(after, rank(source)...)
	}

	return Result{Status: target, Affected: changedFrom(tasks, after)}
}

func rank(group []domain.Task) []domain.Task {
	for i := range group {
		group[i].Order = i
	}
	return group
}

func changedFrom(before []domain.Task, after []domain.Task) []domain.Task {
	idx := indexByID(before)
	var out []domain.Task
	for _, t := range after {
		i, ok := idx[t.ID]
		if !ok || !before[i].SamePosition(t) {
			out = append(out, t)
		}
	}
	return out
}

func find(tasks []domain.Task, id uuid.UUID) (domain.Task, bool) {
	if id == uuid.Nil {
		return domain.Task{}, false
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func position(group []domain.Task, id uuid.UUID) int {
	return slices.IndexFunc(group, func(t domain.Task) bool { return t.ID == id })
}
