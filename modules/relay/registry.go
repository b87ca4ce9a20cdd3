package relay

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry owns every live room. Lookups take the registry read lock and
// then the room's own lock, so membership changes are serialized per room
// while unrelated rooms proceed in parallel. Inserts and removals take the
// registry write lock.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*roomEntry
	capacity int
}

type roomEntry struct {
	mu   sync.Mutex
	room *Room
}

// NewRegistry creates an empty registry. capacity is the per-subscriber
// queue length given to each new room's broadcaster.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		rooms:    make(map[string]*roomEntry),
		capacity: capacity,
	}
}

// CreateRoom allocates a room with a fresh identifier and returns the identifier.
func (r *Registry) CreateRoom(name string) string {
	return r.createRoom(uuid.New().String(), name)
}

func (r *Registry) createRoom(id, name string) string {
	entry := &roomEntry{room: newRoom(id, name, r.capacity)}

	r.mu.Lock()
	r.rooms[id] = entry
	r.mu.Unlock()
	return id
}

// GetRoom returns a snapshot of the room, or ErrRoomNotFound.
func (r *Registry) GetRoom(id string) (RoomInfo, error) {
	var info RoomInfo
	err := r.WithRoom(id, func(room *Room) {
		info = room.info()
	})
	return info, err
}

// ListRooms returns snapshots of all rooms ordered by creation time.
func (r *Registry) ListRooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]RoomInfo, 0, len(r.rooms))
	for _, entry := range r.rooms {
		entry.mu.Lock()
		result = append(result, entry.room.info())
		entry.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// WithRoom runs fn with exclusive access to the room. The room cannot be
// removed while fn runs. fn must not call back into the registry.
func (r *Registry) WithRoom(id string, fn func(room *Room)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.room)
	return nil
}

// RemoveRoomIfEmpty deletes the room when it has no members and reports
// whether it did. The check and the delete happen under the write lock, so
// a concurrent join either lands first (room kept) or fails with ErrRoomNotFound.
func (r *Registry) RemoveRoomIfEmpty(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rooms[id]
	if !ok {
		return false
	}

	entry.mu.Lock()
	empty := entry.room.MemberCount() == 0
	entry.mu.Unlock()

	if !empty {
		return false
	}
	delete(r.rooms, id)
	return true
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
