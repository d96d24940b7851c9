package room

// PlayerView is the public per-player summary used for scoreboards.
type PlayerView struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// PublicView is the room summary safe to broadcast to every member. It never
// carries the secret word.
type PublicView struct {
	RoomID     string                `json:"room_id"`
	OwnerID    string                `json:"owner_id"`
	Status     Status                `json:"status"`
	RoundIndex int                   `json:"round_index"`
	Phase      Phase                 `json:"phase"`
	DrawerID   string                `json:"drawer_id"`
	TimeLeft   int                   `json:"time_left"`
	Solved     bool                  `json:"solved"`
	Players    map[string]PlayerView `json:"players"`
}

// PrivateView is the per-player round summary. Word is populated only when
// the viewer is the round's drawer.
type PrivateView struct {
	RoundIndex int    `json:"round_index"`
	Phase      Phase  `json:"phase"`
	DrawerID   string `json:"drawer_id"`
	TimeLeft   int    `json:"time_left"`
	Word       string `json:"word,omitempty"`
}

// PublicView returns a self-consistent snapshot of the room for broadcast.
func (r *Room) PublicView() PublicView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := PublicView{
		RoomID:  r.id,
		OwnerID: r.ownerID,
		Status:  r.status,
		Phase:   PhaseWaiting,
		Players: make(map[string]PlayerView, len(r.players)),
	}
	for pid, p := range r.players {
		view.Players[pid] = PlayerView{
			PlayerID:  p.ID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
		}
	}
	if r.round != nil {
		view.RoundIndex = r.round.Index
		view.Phase = r.round.Phase
		view.DrawerID = r.round.DrawerID
		view.TimeLeft = r.timeLeftLocked()
		view.Solved = r.round.SolvedBy != ""
	}
	return view
}

// PrivateView returns the round summary for one player, exposing the secret
// word only to the drawer.
func (r *Room) PrivateView(playerID string) PrivateView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := PrivateView{Phase: PhaseWaiting}
	if r.round != nil {
		view.RoundIndex = r.round.Index
		view.Phase = r.round.Phase
		view.DrawerID = r.round.DrawerID
		view.TimeLeft = r.timeLeftLocked()
		if playerID == r.round.DrawerID {
			view.Word = r.round.Word
		}
	}
	return view
}

// OwnerID returns the current owner's player id, or empty when the room has
// no members.
func (r *Room) OwnerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownerID
}

// Status returns the room lifecycle state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// PlayerCount returns the number of members.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// IsEmpty reports whether the room has no members left.
func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// HasPlayer reports whether the given player id is a member.
func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[id]
	return ok
}

// PlayerScore returns a member's score, or 0 for non-members.
func (r *Room) PlayerScore(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[id]; ok {
		return p.Score
	}
	return 0
}

// RoundSnapshot returns a copy of the current round (guess history
// included) and whether one exists. The copy is safe to inspect without
// holding any lock.
func (r *Room) RoundSnapshot() (Round, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round == nil {
		return Round{}, false
	}
	snapshot := *r.round
	snapshot.Guesses = append([]Guess(nil), r.round.Guesses...)
	return snapshot, true
}
