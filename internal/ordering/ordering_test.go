package ordering

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard/internal/domain"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func taskID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// mk builds a task whose creation time increases with seq.
func mk(name string, status domain.TaskStatus, order, seq int) domain.Task {
	return domain.Task{
		ID:        taskID(name),
		Title:     name,
		Status:    status,
		Order:     order,
		CreatedAt: baseTime.Add(time.Duration(seq) * time.Minute),
	}
}

func positions(tasks []domain.Task) []domain.TaskPosition {
	out := make([]domain.TaskPosition, len(tasks))
	for i, t := range tasks {
		out[i] = t.Position()
	}
	return out
}

func pos(name string, status domain.TaskStatus, order int) domain.TaskPosition {
	return domain.TaskPosition{ID: taskID(name), Status: status, Order: order}
}

func abc() []domain.Task {
	return []domain.Task{
		mk("A", domain.StatusTodo, 0, 0),
		mk("B", domain.StatusTodo, 1, 1),
		mk("C", domain.StatusTodo, 2, 2),
	}
}

func TestNextOrder(t *testing.T) {
	assert.Equal(t, 0, NextOrder(nil))
	assert.Equal(t, 0, NextOrder([]domain.Task{}))
	assert.Equal(t, 3, NextOrder(abc()))

	sparse := []domain.Task{
		mk("x", domain.StatusTodo, 7, 0),
		mk("y", domain.StatusTodo, 2, 1),
	}
	assert.Equal(t, 8, NextOrder(sparse))

	mixed := append(abc(), mk("D", domain.StatusDone, 10, 3))
	assert.Equal(t, 3, NextOrderIn(mixed, domain.StatusTodo))
	assert.Equal(t, 11, NextOrderIn(mixed, domain.StatusDone))
	assert.Equal(t, 0, NextOrderIn(mixed, domain.StatusInProgress))
}

func TestNextOrderIsGreaterThanEveryOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		group := make([]domain.Task, r.IntN(12))
		for j := range group {
			group[j] = mk(fmt.Sprintf("t%d-%d", i, j), domain.StatusTodo, r.IntN(50), j)
		}
		next := NextOrder(group)
		for _, task := range group {
			require.Greater(t, next, task.Order)
		}
	}
}

func TestSortTieBreak(t *testing.T) {
	older := mk("older", domain.StatusTodo, 1, 0)
	newer := mk("newer", domain.StatusTodo, 1, 5)
	first := mk("first", domain.StatusTodo, 0, 0)
	done := mk("done", domain.StatusDone, 0, 9)
	doing := mk("doing", domain.StatusInProgress, 4, 9)

	sorted := Sort([]domain.Task{done, older, doing, newer, first})
	names := make([]string, len(sorted))
	for i, task := range sorted {
		names[i] = task.Title
	}

	assert.Equal(t, []string{"first", "newer", "older", "doing", "done"}, names)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []domain.Task
		active   string
		over     DropTarget
		status   domain.TaskStatus
		expected []domain.TaskPosition
	}{
		{
			name:   "drag last task to top of its lane",
			tasks:  abc(),
			active: "C",
			over:   OverTask(taskID("A")),
			status: domain.StatusTodo,
			expected: []domain.TaskPosition{
				pos("C", domain.StatusTodo, 0),
				pos("A", domain.StatusTodo, 1),
				pos("B", domain.StatusTodo, 2),
			},
		},
		{
			name:   "drag first task onto last task moves it to the end",
			tasks:  abc(),
			active: "A",
			over:   OverTask(taskID("C")),
			status: domain.StatusTodo,
			expected: []domain.TaskPosition{
				pos("B", domain.StatusTodo, 0),
				pos("C", domain.StatusTodo, 1),
				pos("A", domain.StatusTodo, 2),
			},
		},
		{
			name:   "adjacent swap touches only two tasks",
			tasks:  abc(),
			active: "B",
			over:   OverTask(taskID("A")),
			status: domain.StatusTodo,
			expected: []domain.TaskPosition{
				pos("B", domain.StatusTodo, 0),
				pos("A", domain.StatusTodo, 1),
			},
		},
		{
			name:   "drop onto empty lane appends and closes the gap",
			tasks:  abc(),
			active: "A",
			over:   OverLane(domain.StatusDone),
			status: domain.StatusDone,
			expected: []domain.TaskPosition{
				pos("A", domain.StatusDone, 0),
				pos("B", domain.StatusTodo, 0),
				pos("C", domain.StatusTodo, 1),
			},
		},
		{
			name:   "drop last task onto another lane leaves source untouched",
			tasks:  abc(),
			active: "C",
			over:   OverLane(domain.StatusInProgress),
			status: domain.StatusInProgress,
			expected: []domain.TaskPosition{
				pos("C", domain.StatusInProgress, 0),
			},
		},
		{
			name: "drop onto a task in another lane inserts before it",
			tasks: append(abc(),
				mk("X", domain.StatusInProgress, 0, 3),
				mk("Y", domain.StatusInProgress, 1, 4),
			),
			active: "B",
			over:   OverTask(taskID("Y")),
			status: domain.StatusInProgress,
			expected: []domain.TaskPosition{
				pos("B", domain.StatusInProgress, 1),
				pos("Y", domain.StatusInProgress, 2),
				pos("C", domain.StatusTodo, 1),
			},
		},
		{
			name: "append to populated lane",
			tasks: append(abc(),
				mk("X", domain.StatusDone, 0, 3),
				mk("Y", domain.StatusDone, 1, 4),
			),
			active: "A",
			over:   OverLane(domain.StatusDone),
			status: domain.StatusDone,
			expected: []domain.TaskPosition{
				pos("A", domain.StatusDone, 2),
				pos("B", domain.StatusTodo, 0),
				pos("C", domain.StatusTodo, 1),
			},
		},
		{
			name: "sparse destination is normalized",
			tasks: []domain.Task{
				mk("A", domain.StatusTodo, 0, 0),
				mk("X", domain.StatusDone, 4, 1),
				mk("Y", domain.StatusDone, 9, 2),
			},
			active: "A",
			over:   OverTask(taskID("X")),
			status: domain.StatusDone,
			expected: []domain.TaskPosition{
				pos("A", domain.StatusDone, 0),
				pos("X", domain.StatusDone, 1),
				pos("Y", domain.StatusDone, 2),
			},
		},
		{
			name:     "self drop is a no-op",
			tasks:    abc(),
			active:   "B",
			over:     OverTask(taskID("B")),
			status:   domain.StatusTodo,
			expected: nil,
		},
		{
			name:     "empty target is a no-op",
			tasks:    abc(),
			active:   "B",
			over:     DropTarget{},
			status:   domain.StatusTodo,
			expected: nil,
		},
		{
			name:     "unknown over task is a no-op",
			tasks:    abc(),
			active:   "B",
			over:     OverTask(taskID("missing")),
			status:   domain.StatusTodo,
			expected: nil,
		},
		{
			name:     "unknown lane is a no-op",
			tasks:    abc(),
			active:   "B",
			over:     OverLane("ARCHIVED"),
			status:   domain.StatusTodo,
			expected: nil,
		},
		{
			name: "same index in same lane is a no-op even with gaps",
			tasks: []domain.Task{
				mk("A", domain.StatusTodo, 0, 0),
				mk("B", domain.StatusTodo, 5, 1),
				mk("C", domain.StatusTodo, 9, 2),
			},
			active:   "C",
			over:     OverLane(domain.StatusTodo),
			status:   domain.StatusTodo,
			expected: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Reconcile(tc.tasks, taskID(tc.active), tc.over)

			assert.Equal(t, tc.status, res.Status)
			assert.ElementsMatch(t, tc.expected, res.Updates())
			assert.Equal(t, len(tc.expected) == 0, res.IsNoop())
		})
	}
}

func TestReconcileUnknownActive(t *testing.T) {
	res := Reconcile(abc(), taskID("ghost"), OverLane(domain.StatusDone))
	assert.True(t, res.IsNoop())

	res = Reconcile(nil, taskID("A"), OverLane(domain.StatusDone))
	assert.True(t, res.IsNoop())
}

func TestReconcileDoesNotModifyInput(t *testing.T) {
	tasks := abc()
	before := positions(tasks)

	Reconcile(tasks, taskID("A"), OverLane(domain.StatusDone))

	assert.Equal(t, before, positions(tasks))
}

func TestNormalize(t *testing.T) {
	tasks := []domain.Task{
		mk("A", domain.StatusTodo, 3, 0),
		mk("B", domain.StatusTodo, 7, 1),
		mk("C", domain.StatusDone, 0, 2),
		mk("D", domain.StatusDone, 0, 3),
	}

	changed := Normalize(tasks)

	assert.ElementsMatch(t, []domain.TaskPosition{
		pos("A", domain.StatusTodo, 0),
		pos("B", domain.StatusTodo, 1),
		// D is newer, so it leads the tie and keeps order 0.
		pos("C", domain.StatusDone, 1),
	}, positions(changed))

	assert.Empty(t, Normalize(ApplyUpdates(tasks, positions(changed))))
}

func TestDiff(t *testing.T) {
	before := abc()

	assert.Empty(t, Diff(before, before))
	assert.Empty(t, Diff(nil, nil))

	after := ApplyUpdates(before, []domain.TaskPosition{pos("B", domain.StatusDone, 0)})
	assert.Equal(t, []domain.TaskPosition{pos("B", domain.StatusDone, 0)}, Diff(before, after))

	created := append(after, mk("new", domain.StatusTodo, 3, 9))
	deleted := created[1:]
	assert.Equal(t, []domain.TaskPosition{pos("B", domain.StatusDone, 0)}, Diff(before, deleted))
}

func TestApplyUpdatesIgnoresUnknownIDs(t *testing.T) {
	tasks := abc()
	out := ApplyUpdates(tasks, []domain.TaskPosition{pos("ghost", domain.StatusDone, 0)})
	assert.Equal(t, positions(tasks), positions(out))
}

// randomBoard builds a board with a random population in every lane. Orders
// are dense within each lane.
func randomBoard(r *rand.Rand, round int) []domain.Task {
	var tasks []domain.Task
	seq := 0
	for _, lane := range domain.Lanes() {
		n := r.IntN(6)
		for i := 0; i < n; i++ {
			tasks = append(tasks, mk(fmt.Sprintf("r%d-%s-%d", round, lane, i), lane, i, seq))
			seq++
		}
	}
	return tasks
}

func TestReconcileProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	lanes := domain.Lanes()

	for round := 0; round < 500; round++ {
		tasks := randomBoard(r, round)
		if len(tasks) == 0 {
			continue
		}
		active := tasks[r.IntN(len(tasks))]

		var over DropTarget
		if r.IntN(2) == 0 {
			over = OverLane(lanes[r.IntN(len(lanes))])
		} else {
			over = OverTask(tasks[r.IntN(len(tasks))].ID)
		}

		res := Reconcile(tasks, active.ID, over)
		after := Overlay(tasks, res.Affected)

		// Affected is exactly the diff.
		require.ElementsMatch(t, Diff(tasks, after), res.Updates())

		// Applying the diff again changes nothing.
		require.Empty(t, Diff(after, ApplyUpdates(after, Diff(tasks, after))))

		// Every lane stays a dense ranking.
		for _, lane := range lanes {
			for i, task := range Group(after, lane) {
				require.Equal(t, i, task.Order, "lane %s after moving %s", lane, active.Title)
			}
		}

		// The active task lands in the reported lane.
		moved, ok := find(after, active.ID)
		require.True(t, ok)
		require.Equal(t, res.Status, moved.Status)

		if over.TaskID == active.ID {
			require.True(t, res.IsNoop())
		}
	}
}
