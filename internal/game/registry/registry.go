// Package registry tracks the set of live rooms on the server: creation with
// sequential ids, lookup, and cleanup of abandoned rooms.
package registry

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/cory-johannsen/sketch/internal/game/room"
)

// Factory builds a new room for the given id. The registry stays ignorant of
// room rules (word pool, player limits, clock); the factory closes over them.
type Factory func(id string) *room.Room

// Summary is the lobby-listing view of one room.
type Summary struct {
	RoomID      string      `json:"room_id"`
	PlayerCount int         `json:"player_count"`
	Status      room.Status `json:"status"`
}

// Registry tracks all live rooms. All methods are safe for concurrent use.
type Registry struct {
	factory Factory

	mu     sync.RWMutex
	rooms  map[string]*room.Room
	nextID int
}

// New creates an empty Registry.
//
// Precondition: factory must be non-nil.
func New(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		rooms:   make(map[string]*room.Room),
		nextID:  1,
	}
}

// Create builds a new room under the next sequential id and registers it.
func (g *Registry) Create() *room.Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := strconv.Itoa(g.nextID)
	g.nextID++

	r := g.factory(id)
	g.rooms[id] = r
	return r
}

// Get returns the room with the given id.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (g *Registry) Get(id string) (*room.Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Delete removes the room with the given id.
//
// Postcondition: Returns an error if no such room exists.
func (g *Registry) Delete(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[id]; !ok {
		return fmt.Errorf("room %q not found", id)
	}
	delete(g.rooms, id)
	return nil
}

// DeleteIfEmpty removes the room only if it still has no members. The
// re-check runs under the registry write lock, so a join that lands between
// a caller's emptiness observation and the delete keeps the room alive.
//
// Postcondition: Returns true when the room existed, was empty, and was
// deleted.
func (g *Registry) DeleteIfEmpty(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[id]
	if !ok {
		return false
	}
	// Bounded room-lock acquisition under the registry lock: PlayerCount
	// holds the room mutex only for a map length read.
	if r.PlayerCount() != 0 {
		return false
	}
	delete(g.rooms, id)
	return true
}

// List returns lobby summaries for every live room, ordered by room id.
func (g *Registry) List() []Summary {
	g.mu.RLock()
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	// Room locks are taken outside the registry lock so a busy room never
	// stalls creation or lookup.
	summaries := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, Summary{
			RoomID:      r.ID(),
			PlayerCount: r.PlayerCount(),
			Status:      r.Status(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, errA := strconv.Atoi(summaries[i].RoomID)
		b, errB := strconv.Atoi(summaries[j].RoomID)
		if errA == nil && errB == nil {
			return a < b
		}
		return summaries[i].RoomID < summaries[j].RoomID
	})
	return summaries
}

// ForEach invokes fn on a snapshot of the live rooms. fn runs outside the
// registry lock and may call back into the registry.
func (g *Registry) ForEach(fn func(r *room.Room)) {
	g.mu.RLock()
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	for _, r := range rooms {
		fn(r)
	}
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
