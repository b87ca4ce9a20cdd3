package relay

import (
	"sort"
	"time"

	domain "github.com/example/room-relay/domain/relay"
)

// Room is a named channel of participants. Its member set is only touched
// through Registry.WithRoom; the broadcaster may be used without locking.
type Room struct {
	id          string
	name        string
	createdAt   time.Time
	members     map[string]struct{}
	broadcaster *Broadcaster
}

func newRoom(id, name string, capacity int) *Room {
	return &Room{
		id:          id,
		name:        name,
		createdAt:   time.Now(),
		members:     make(map[string]struct{}),
		broadcaster: NewBroadcaster(capacity),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Name returns the display label set at creation.
func (r *Room) Name() string { return r.name }

// HasMember reports whether username is present.
func (r *Room) HasMember(username string) bool {
	_, ok := r.members[username]
	return ok
}

// AddMember inserts username into the member set.
func (r *Room) AddMember(username string) {
	r.members[username] = struct{}{}
}

// RemoveMember deletes username from the member set.
func (r *Room) RemoveMember(username string) {
	delete(r.members, username)
}

// MemberCount returns the number of members.
func (r *Room) MemberCount() int {
	return len(r.members)
}

// Subscribe attaches a new subscriber to the room's broadcaster.
func (r *Room) Subscribe() *Subscription {
	return r.broadcaster.Subscribe()
}

// Broadcast publishes msg to every subscriber and returns the receiver count.
func (r *Room) Broadcast(msg domain.Message) int {
	return r.broadcaster.Publish(msg)
}

func (r *Room) info() RoomInfo {
	users := make([]string, 0, len(r.members))
	for username := range r.members {
		users = append(users, username)
	}
	sort.Strings(users)

	return RoomInfo{
		ID:        r.id,
		Name:      r.name,
		Users:     users,
		CreatedAt: r.createdAt,
	}
}

// RoomInfo is a point-in-time snapshot of a room.
type RoomInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"created_at"`
}
