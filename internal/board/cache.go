package board

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/ordering"
)

// ErrStaleMutation is returned by Rollback when newer state has been written
// since the mutation was applied. The prior snapshot is discarded instead of
// overwriting that newer state; callers should refetch from the server.
var ErrStaleMutation = errors.New("mutation superseded by newer state")

// Mutator derives the next task collection from the current one. It receives
// a private copy and may modify it freely.
type Mutator func(current []domain.Task) []domain.Task

// Mutation records one optimistic change: the state before it, the state it
// produced, and the cache version it produced.
type Mutation struct {
	version uint64
	prior   []domain.Task
	after   []domain.Task
}

// Version is the cache version written by the mutation (or its latest Amend).
func (m *Mutation) Version() uint64 {
	return m.version
}

// Prior returns a copy of the snapshot captured before the mutation.
func (m *Mutation) Prior() []domain.Task {
	return slices.Clone(m.prior)
}

// Listener is notified with the new snapshot after every state change.
type Listener func(tasks []domain.Task, version uint64)

// Cache is the client's mirror of the server's task collection. Every write
// bumps a monotonic version so rollbacks of superseded mutations can be
// detected. Snapshots are always returned in board order.
type Cache struct {
	mu        sync.Mutex
	tasks     []domain.Task
	version   uint64
	listeners map[int]Listener
	nextID    int
}

// NewCache creates a cache holding initial.
func NewCache(initial []domain.Task) *Cache {
	return &Cache{
		tasks:     ordering.Sort(initial),
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns a copy of the current tasks.
func (c *Cache) Snapshot() []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Version returns the current version.
func (c *Cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Get returns the task with the given id.
func (c *Cache) Get(id uuid.UUID) (domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Apply replaces the held state with fn's result immediately. Applications
// compose: fn sees the result of every earlier Apply.
func (c *Cache) Apply(fn Mutator) *Mutation {
	c.mu.Lock()
	prior := slices.Clone(c.tasks)
	c.write(fn(slices.Clone(c.tasks)))
	m := &Mutation{version: c.version, prior: prior, after: slices.Clone(c.tasks)}
	notify := c.pending()
	c.mu.Unlock()

	notify()
	return m
}

// Amend supersedes m with fn applied to the current state. The prior of m is
// kept, so a later Rollback restores the state from before m was first
// applied.
func (c *Cache) Amend(m *Mutation, fn Mutator) {
	c.mu.Lock()
	c.write(fn(slices.Clone(c.tasks)))
	m.version = c.version
	m.after = slices.Clone(c.tasks)
	notify := c.pending()
	c.mu.Unlock()

	notify()
}

// Rollback restores the snapshot captured before m. It returns
// ErrStaleMutation, leaving the cache untouched, when any write happened after m.
func (c *Cache) Rollback(m *Mutation) error {
	c.mu.Lock()
	if c.version != m.version {
		c.mu.Unlock()
		return ErrStaleMutation
	}
	c.write(slices.Clone(m.prior))
	notify := c.pending()
	c.mu.Unlock()

	notify()
	return nil
}

// Commit merges server-confirmed tasks into the cache. Tasks left untouched
// since m take the server's value as is. Tasks changed by a later mutation
// keep their newer local fields and only take the server's timestamps.
func (c *Cache) Commit(m *Mutation, confirmed ...domain.Task) {
	byID := make(map[uuid.UUID]domain.Task, len(confirmed))
	for _, t := range confirmed {
		byID[t.ID] = t
	}
	c.commit(m, byID)
}

// CommitCreate is Commit for an optimistically created task: the entry held
// under localID is swapped for the server's task and its id.
func (c *Cache) CommitCreate(m *Mutation, localID uuid.UUID, created domain.Task) {
	c.commit(m, map[uuid.UUID]domain.Task{localID: created})
}

func (c *Cache) commit(m *Mutation, confirmed map[uuid.UUID]domain.Task) {
	if len(confirmed) == 0 {
		return
	}

	c.mu.Lock()
	next := slices.Clone(c.tasks)
	changed := false
	for i, cur := range next {
		server, ok := confirmed[cur.ID]
		if !ok {
			continue
		}
		if expected, ok := findTask(m.after, cur.ID); ok && sameTask(expected, cur) {
			next[i] = server
		} else {
			next[i].ID = server.ID
			next[i].UserID = server.UserID
			next[i].CreatedAt = server.CreatedAt
			next[i].UpdatedAt = server.UpdatedAt
		}
		changed = changed || !sameTask(cur, next[i])
	}
	if !changed {
		c.mu.Unlock()
		return
	}
	c.write(next)
	notify := c.pending()
	c.mu.Unlock()

	notify()
}

// Replace installs a freshly fetched collection, discarding any optimistic state.
func (c *Cache) Replace(tasks []domain.Task) {
	c.mu.Lock()
	c.write(tasks)
	notify := c.pending()
	c.mu.Unlock()

	notify()
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (c *Cache) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// write must be called with c.mu held.
func (c *Cache) write(tasks []domain.Task) {
	c.tasks = ordering.Sort(tasks)
	c.version++
}

// pending captures the listeners and state to publish once c.mu is released.
func (c *Cache) pending() func() {
	if len(c.listeners) == 0 {
		return func() {}
	}
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	snapshot := slices.Clone(c.tasks)
	version := c.version
	return func() {
		for _, l := range listeners {
			l(slices.Clone(snapshot), version)
		}
	}
}

func findTask(tasks []domain.Task, id uuid.UUID) (domain.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func sameTask(a, b domain.Task) bool {
	return a.ID == b.ID &&
		a.UserID == b.UserID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Status == b.Status &&
		a.Order == b.Order &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
