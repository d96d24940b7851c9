// Package room implements the per-room game state machine for the
// draw-and-guess protocol: player roster, drawer rotation, round timing,
// guess judging, and scoring. A Room performs no I/O and no scheduling of
// its own; timeouts are driven externally through UpdateTimeouts.
package room

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Status is the room lifecycle state.
type Status string

const (
	// StatusWaiting means no game is in progress.
	StatusWaiting Status = "waiting"
	// StatusPlaying means a game has been started.
	StatusPlaying Status = "playing"
)

// Phase is the round lifecycle state. Every round moves waiting → drawing →
// ended; a finished Round is never re-entered, the next StartRound builds a
// fresh one.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseDrawing Phase = "drawing"
	PhaseEnded   Phase = "ended"
)

// Player is one room member. Scores never decrease within a game.
type Player struct {
	ID        string
	Name      string
	Score     int
	Connected bool
}

// Guess is one judged guess attempt, retained for the round's full history.
type Guess struct {
	PlayerID string
	Text     string
	At       time.Time
}

// Round is one timed draw-and-guess cycle.
type Round struct {
	Index     int
	DrawerID  string
	Word      string
	Phase     Phase
	StartedAt time.Time
	SolvedBy  string
	Guesses   []Guess
}

// Options configures a Room's rules. Zero values fall back to the package
// defaults below.
type Options struct {
	// MinPlayers is the member count required for StartGame.
	MinPlayers int
	// MaxPlayers is the room capacity.
	MaxPlayers int
	// DrawTime is the duration of one drawing round.
	DrawTime time.Duration
	// Rand drives drawer shuffling and word selection; nil uses a
	// time-seeded source.
	Rand *rand.Rand
}

// Package defaults applied when Options fields are zero.
const (
	DefaultMinPlayers = 2
	DefaultMaxPlayers = 8
	DefaultDrawTime   = 60 * time.Second
)

// Scoring bounds for the first solver of a round.
const (
	minSolveScore = 3
	maxSolveScore = 10
)

// Room owns one game session's mutable state. All methods are safe for
// concurrent use; each takes the room's own lock for its full duration so
// observers never see a half-applied transition.
type Room struct {
	id    string
	opts  Options
	clock Clock
	words []string
	rng   *rand.Rand

	mu           sync.Mutex
	players      map[string]*Player
	ownerID      string
	status       Status
	rotation     []string
	roundsPlayed int
	round        *Round
}

// New creates a waiting room with the given word pool.
//
// Precondition: id must be non-empty; pool should contain at least one word
// for rounds to ever start.
// Postcondition: Returns an empty Room in StatusWaiting.
func New(id string, pool []string, opts Options, clock Clock) *Room {
	if opts.MinPlayers <= 0 {
		opts.MinPlayers = DefaultMinPlayers
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.DrawTime <= 0 {
		opts.DrawTime = DefaultDrawTime
	}
	if clock == nil {
		clock = SystemClock()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}

	return &Room{
		id:      id,
		opts:    opts,
		clock:   clock,
		words:   pool,
		rng:     rng,
		players: make(map[string]*Player),
		status:  StatusWaiting,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// AddPlayer adds a member, making the first-ever member the owner. Adding an
// already-present player is a no-op success. The drawer rotation is rebuilt
// on every membership change so fairness is recomputed, not appended-to.
//
// Postcondition: Returns false with no mutation when id is empty or the room
// is at capacity.
func (r *Room) AddPlayer(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		return false
	}
	if _, ok := r.players[id]; ok {
		return true
	}
	if len(r.players) >= r.opts.MaxPlayers {
		return false
	}

	r.players[id] = &Player{ID: id, Name: name, Connected: true}
	if r.ownerID == "" {
		r.ownerID = id
	}
	r.rebuildRotationLocked()
	return true
}

// RemovePlayer deletes a member. Ownership transfers to an arbitrary
// remaining member (or clears). If the departing player is the active
// round's drawer, the round is force-ended in the same operation so
// guessers are never left blocked.
func (r *Room) RemovePlayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)

	if r.ownerID == id {
		r.ownerID = ""
		for pid := range r.players {
			r.ownerID = pid
			break
		}
	}

	r.rebuildRotationLocked()

	if r.round != nil && r.round.Phase == PhaseDrawing && r.round.DrawerID == id {
		r.forceEndRoundLocked()
	}
}

// StartGame marks the room playing, resets the completed-round counter, and
// starts the first round.
//
// Postcondition: Returns false with no mutation when already playing, below
// MinPlayers, or the word pool is empty.
func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusPlaying {
		return false
	}
	if len(r.players) < r.opts.MinPlayers {
		return false
	}
	if len(r.words) == 0 {
		return false
	}

	r.status = StatusPlaying
	r.roundsPlayed = 0
	return r.startRoundLocked()
}

// StartRound begins a new round: next drawer popped from the rotation, fresh
// secret word, drawing phase, timer running.
//
// Postcondition: Returns false when the room is not playing.
func (r *Room) StartRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startRoundLocked()
}

func (r *Room) startRoundLocked() bool {
	if r.status != StatusPlaying {
		return false
	}
	if len(r.players) == 0 || len(r.words) == 0 {
		return false
	}

	if len(r.rotation) == 0 {
		r.rebuildRotationLocked()
	}

	// FIFO pop, re-append to the tail for round-robin fairness.
	drawer := r.rotation[0]
	r.rotation = append(r.rotation[1:], drawer)

	r.round = &Round{
		Index:     r.roundsPlayed + 1,
		DrawerID:  drawer,
		Word:      r.words[r.rng.Intn(len(r.words))],
		Phase:     PhaseDrawing,
		StartedAt: r.clock.Now(),
	}
	return true
}

// SubmitGuess judges one guess and, on the round's first correct match,
// credits the guesser, credits the drawer with half the award (minimum 1),
// and ends the round.
//
// Postcondition: Returns (false, 0) with no score change when the round is
// not in the drawing phase, the guesser is the drawer or not a member, or
// the round is already solved. Otherwise the guess is logged.
func (r *Room) SubmitGuess(playerID, text string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rnd := r.round
	if rnd == nil || rnd.Phase != PhaseDrawing {
		return false, 0
	}
	if playerID == rnd.DrawerID {
		return false, 0
	}
	guesser, ok := r.players[playerID]
	if !ok {
		return false, 0
	}
	if rnd.SolvedBy != "" {
		return false, 0
	}

	rnd.Guesses = append(rnd.Guesses, Guess{
		PlayerID: playerID,
		Text:     text,
		At:       r.clock.Now(),
	})

	if Normalize(text) != Normalize(rnd.Word) {
		return false, 0
	}

	rnd.SolvedBy = playerID
	points := r.solveScoreLocked()
	guesser.Score += points
	if drawer, ok := r.players[rnd.DrawerID]; ok {
		bonus := points / 2
		if bonus < 1 {
			bonus = 1
		}
		drawer.Score += bonus
	}
	rnd.Phase = PhaseEnded
	return true, points
}

// NextRound increments the completed-round counter and starts a fresh round.
//
// Postcondition: Returns false when the room is not playing.
func (r *Room) NextRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusPlaying {
		return false
	}
	r.roundsPlayed++
	return r.startRoundLocked()
}

// EndGame stops the game and force-ends any active round. Player scores are
// retained.
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = StatusWaiting
	r.forceEndRoundLocked()
}

// UpdateTimeouts force-ends the active round when its drawing time has
// elapsed unsolved, reporting whether anything changed. It must be invoked
// periodically by an external driver; the Room never schedules itself.
func (r *Room) UpdateTimeouts() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round == nil || r.round.Phase != PhaseDrawing {
		return false
	}
	if r.timeLeftLocked() > 0 {
		return false
	}
	r.round.Phase = PhaseEnded
	return true
}

// Reset returns the room to an empty waiting state while retaining the
// current roster: scores zeroed, round discarded, rotation reshuffled.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = StatusWaiting
	r.round = nil
	r.roundsPlayed = 0
	for _, p := range r.players {
		p.Score = 0
	}
	r.rebuildRotationLocked()
}

// forceEndRoundLocked ends an in-flight round with the solved marker
// cleared (drawer loss, game end). Already-finished rounds are untouched.
func (r *Room) forceEndRoundLocked() {
	if r.round == nil || r.round.Phase != PhaseDrawing {
		return
	}
	r.round.Phase = PhaseEnded
	r.round.SolvedBy = ""
}

// rebuildRotationLocked reshuffles all current member ids into a fresh
// fairness queue.
func (r *Room) rebuildRotationLocked() {
	r.rotation = r.rotation[:0]
	for pid := range r.players {
		r.rotation = append(r.rotation, pid)
	}
	r.rng.Shuffle(len(r.rotation), func(i, j int) {
		r.rotation[i], r.rotation[j] = r.rotation[j], r.rotation[i]
	})
}

// timeLeftLocked returns whole seconds remaining in the active round,
// clamped at zero.
func (r *Room) timeLeftLocked() int {
	if r.round == nil || r.round.Phase != PhaseDrawing {
		return 0
	}
	deadline := r.round.StartedAt.Add(r.opts.DrawTime)
	left := deadline.Sub(r.clock.Now())
	if left <= 0 {
		return 0
	}
	return int(left.Seconds())
}

// solveScoreLocked computes the first-solver award: linear in the fraction
// of round time remaining, clamped to [minSolveScore, maxSolveScore].
func (r *Room) solveScoreLocked() int {
	left := r.timeLeftLocked()
	total := int(r.opts.DrawTime.Seconds())
	if total < 1 {
		total = 1
	}
	ratio := float64(left) / float64(total)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	score := int(math.Round(float64(minSolveScore) + 7*ratio))
	if score < minSolveScore {
		score = minSolveScore
	}
	if score > maxSolveScore {
		score = maxSolveScore
	}
	return score
}
