package ordering

import "github.com/phrazzld/taskboard/internal/domain"

// Diff returns the positions of every task present in both before and after
// whose status or order differs. Tasks that only exist on one side are
// creations or deletions and are not part of a reorder. Output follows the
// order of after.
func Diff(before, after []domain.Task) []domain.TaskPosition {
	idx := indexByID(before)
	var out []domain.TaskPosition
	for _, t := range after {
		i, ok := idx[t.ID]
		if !ok {
			continue
		}
		if !before[i].SamePosition(t) {
			out = append(out, t.Position())
		}
	}
	return out
}
