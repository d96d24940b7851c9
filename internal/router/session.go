package router

import (
	"sync"
)

// Session is the per-connection state: the negotiated identity and the room
// the connection is currently bound to. A session holds a non-owning room id,
// never a room pointer; the registry stays the single source of truth.
type Session struct {
	mu       sync.Mutex
	peer     Peer
	addr     string
	playerID string
	name     string
	roomID   string
}

// Addr returns the session's remote address, its key in the live-session set.
func (s *Session) Addr() string { return s.addr }

// PlayerID returns the bound player id, empty before connect.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// Name returns the bound display name, empty before connect.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// RoomID returns the id of the room this session is bound to, or empty.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setIdentity(playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
	s.name = name
}

func (s *Session) setRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

// sessionSet tracks live sessions keyed by remote address. All methods are
// safe for concurrent use.
type sessionSet struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionSet() *sessionSet {
	return &sessionSet{sessions: make(map[string]*Session)}
}

func (ss *sessionSet) add(s *Session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[s.addr] = s
}

func (ss *sessionSet) remove(addr string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, addr)
}

func (ss *sessionSet) count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// inRoom returns a snapshot of the sessions currently bound to the given
// room. Safe to iterate without any lock held.
func (ss *sessionSet) inRoom(roomID string) []*Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var members []*Session
	for _, s := range ss.sessions {
		if s.RoomID() == roomID {
			members = append(members, s)
		}
	}
	return members
}

// findPlayer returns the session bound to the given room with the given
// player id.
func (ss *sessionSet) findPlayer(roomID, playerID string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	for _, s := range ss.sessions {
		if s.RoomID() == roomID && s.PlayerID() == playerID {
			return s, true
		}
	}
	return nil, false
}
