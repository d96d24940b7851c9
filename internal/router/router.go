// Package router interprets decoded wire messages against per-connection
// sessions and the room registry. It is the only place game rules meet the
// network: frontends hand it framed bytes, it hands frontends framed replies
// and broadcasts.
package router

import (
	"context"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sketch/internal/game/registry"
	"github.com/cory-johannsen/sketch/internal/game/room"
	"github.com/cory-johannsen/sketch/internal/protocol"
)

// Peer is one client connection as the router sees it, independent of the
// carrying transport (TCP stream or WebSocket).
type Peer interface {
	// ReadFrame returns the next complete inbound frame. It blocks until a
	// frame arrives, the peer closes, or an I/O error occurs.
	ReadFrame() ([]byte, error)
	// WriteFrame writes one complete frame. Safe for concurrent use.
	WriteFrame(frame []byte) error
	// RemoteAddr returns the peer's remote address string.
	RemoteAddr() string
	// Close tears the connection down, unblocking any pending ReadFrame.
	Close() error
}

// Router owns the live-session set and dispatches every inbound message.
type Router struct {
	logger   *zap.Logger
	registry *registry.Registry
	sessions *sessionSet
}

// New creates a Router over the given registry.
//
// Precondition: logger and reg must be non-nil.
func New(logger *zap.Logger, reg *registry.Registry) *Router {
	return &Router{
		logger:   logger,
		registry: reg,
		sessions: newSessionSet(),
	}
}

// SessionCount returns the number of live sessions.
func (rt *Router) SessionCount() int { return rt.sessions.count() }

// HandleSession runs the read loop for one connection until the peer closes,
// an I/O error occurs, or ctx is cancelled. On exit the session is detached:
// removed from the live set and from its room, with the room deleted if it
// became empty.
func (rt *Router) HandleSession(ctx context.Context, peer Peer) {
	sess := &Session{peer: peer, addr: peer.RemoteAddr()}
	rt.sessions.add(sess)
	defer rt.detach(sess)

	log := rt.logger.With(zap.String("remote_addr", sess.addr))
	log.Info("session opened")

	// Close the peer when ctx is cancelled so ReadFrame unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = peer.Close()
		case <-done:
		}
	}()

	for {
		frame, err := peer.ReadFrame()
		if err != nil {
			log.Info("session closed", zap.Error(err))
			return
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			// Protocol errors are dropped; the connection stays open.
			log.Debug("dropping malformed frame", zap.Error(err))
			continue
		}
		rt.dispatch(sess, msg)
	}
}

func (rt *Router) dispatch(sess *Session, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeConnect:
		rt.handleConnect(sess, msg)
	case protocol.TypeCreateRoom:
		rt.handleCreateRoom(sess)
	case protocol.TypeListRooms:
		rt.handleListRooms(sess)
	case protocol.TypeJoinRoom:
		rt.handleJoinRoom(sess, msg)
	case protocol.TypeLeaveRoom:
		rt.handleLeaveRoom(sess)
	case protocol.TypeKickPlayer:
		rt.handleKickPlayer(sess, msg)
	case protocol.TypeStartGame:
		rt.handleStartGame(sess)
	case protocol.TypeNextRound:
		rt.handleNextRound(sess)
	case protocol.TypeEndGame:
		rt.handleEndGame(sess)
	case protocol.TypeGetState:
		rt.handleGetState(sess)
	case protocol.TypeDraw:
		rt.handleDraw(sess, msg)
	case protocol.TypeGuess:
		rt.handleGuess(sess, msg)
	case protocol.TypeChat:
		rt.handleChat(sess, msg)
	default:
		// Unknown types are protocol errors: dropped, connection kept.
		rt.logger.Debug("dropping unknown message type",
			zap.String("type", msg.Type),
			zap.String("remote_addr", sess.addr),
		)
	}
}

func (rt *Router) handleConnect(sess *Session, msg protocol.Message) {
	playerID := msg.Str("player_id")
	name := msg.Str("name")
	defaultID, defaultName := identityDefaults(sess.addr)
	if playerID == "" {
		playerID = defaultID
	}
	if name == "" {
		name = defaultName
	}
	sess.setIdentity(playerID, name)

	rt.send(sess, protocol.Ack(protocol.TypeConnect, map[string]any{
		"player_id": playerID,
		"name":      name,
	}))
}

func (rt *Router) handleCreateRoom(sess *Session) {
	rt.ensureIdentity(sess)
	rt.leaveCurrentRoom(sess)

	r := rt.registry.Create()
	r.AddPlayer(sess.PlayerID(), sess.Name())
	sess.setRoom(r.ID())

	rt.logger.Info("room created",
		zap.String("room_id", r.ID()),
		zap.String("player_id", sess.PlayerID()),
	)

	rt.send(sess, protocol.Ack(protocol.TypeCreateRoom, map[string]any{
		"room_id": r.ID(),
	}))
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleListRooms(sess *Session) {
	rt.send(sess, protocol.Ack(protocol.TypeListRooms, map[string]any{
		"rooms": rt.registry.List(),
	}))
}

func (rt *Router) handleJoinRoom(sess *Session, msg protocol.Message) {
	rt.ensureIdentity(sess)

	r, ok := rt.registry.Get(msg.Str("room_id"))
	if !ok {
		rt.send(sess, protocol.Error("Room not found"))
		return
	}
	rt.leaveCurrentRoom(sess)

	if !r.AddPlayer(sess.PlayerID(), sess.Name()) {
		rt.send(sess, protocol.Error("Could not join room"))
		return
	}
	// A leaving last member may have deleted the room between the lookup
	// and the add. Undo rather than ack membership in an unlisted room.
	if current, live := rt.registry.Get(r.ID()); !live || current != r {
		r.RemovePlayer(sess.PlayerID())
		rt.send(sess, protocol.Error("Room not found"))
		return
	}
	sess.setRoom(r.ID())

	rt.send(sess, protocol.Ack(protocol.TypeJoinRoom, map[string]any{
		"room_id": r.ID(),
	}))
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleLeaveRoom(sess *Session) {
	rt.leaveCurrentRoom(sess)
	rt.send(sess, protocol.Ack(protocol.TypeLeaveRoom, nil))
}

func (rt *Router) handleKickPlayer(sess *Session, msg protocol.Message) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	if r.OwnerID() != sess.PlayerID() {
		rt.send(sess, protocol.Error("Permission denied"))
		return
	}

	targetID := msg.Str("player_id")
	if !r.HasPlayer(targetID) {
		rt.send(sess, protocol.Error("Player not found"))
		return
	}
	r.RemovePlayer(targetID)

	if target, ok := rt.sessions.findPlayer(r.ID(), targetID); ok {
		target.setRoom("")
		rt.send(target, protocol.Event(protocol.TypeKickPlayer, map[string]any{
			"room_id": r.ID(),
		}))
	}

	rt.send(sess, protocol.Ack(protocol.TypeKickPlayer, map[string]any{
		"player_id": targetID,
	}))
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleStartGame(sess *Session) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	if r.OwnerID() != sess.PlayerID() {
		rt.send(sess, protocol.Error("Permission denied"))
		return
	}
	if !r.StartGame() {
		rt.send(sess, protocol.Error("Could not start game"))
		return
	}

	rt.logger.Info("game started",
		zap.String("room_id", r.ID()),
		zap.String("owner_id", sess.PlayerID()),
	)

	rt.broadcastEvent(r.ID(), protocol.Event(protocol.TypeStartGame, map[string]any{
		"ok": true,
	}))
	rt.broadcastRoundStart(r)
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleNextRound(sess *Session) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	if r.OwnerID() != sess.PlayerID() {
		rt.send(sess, protocol.Error("Permission denied"))
		return
	}
	if !r.NextRound() {
		rt.send(sess, protocol.Error("Game not started"))
		return
	}

	rt.broadcastRoundStart(r)
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleEndGame(sess *Session) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	if r.OwnerID() != sess.PlayerID() {
		rt.send(sess, protocol.Error("Permission denied"))
		return
	}
	r.EndGame()

	rt.broadcastEvent(r.ID(), protocol.Event(protocol.TypeEndGame, nil))
	rt.broadcastRoomUpdate(r)
}

func (rt *Router) handleGetState(sess *Session) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	rt.send(sess, protocol.Ack(protocol.TypeGetState, map[string]any{
		"room":  r.PublicView(),
		"round": r.PrivateView(sess.PlayerID()),
	}))
}

func (rt *Router) handleDraw(sess *Session, msg protocol.Message) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	// Strokes go to everyone except the artist.
	rt.broadcastExcept(r.ID(), sess.addr, protocol.DrawSync(sess.PlayerID(), msg.Data))
}

func (rt *Router) handleGuess(sess *Session, msg protocol.Message) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	if r.Status() != room.StatusPlaying {
		rt.send(sess, protocol.Error("Game not started"))
		return
	}

	correct, points := r.SubmitGuess(sess.PlayerID(), msg.Str("text"))
	rt.broadcastEvent(r.ID(), protocol.Event("guess_result", map[string]any{
		"by":      sess.PlayerID(),
		"by_name": sess.Name(),
		"correct": correct,
		"points":  points,
		"solved":  correct,
	}))
	if correct {
		rt.logger.Info("round solved",
			zap.String("room_id", r.ID()),
			zap.String("player_id", sess.PlayerID()),
			zap.Int("points", points),
		)
		rt.broadcastRoomUpdate(r)
	}
}

func (rt *Router) handleChat(sess *Session, msg protocol.Message) {
	r, ok := rt.sessionRoom(sess)
	if !ok {
		rt.send(sess, protocol.Error("Not in a room"))
		return
	}
	rt.broadcastEvent(r.ID(), protocol.Chat(sess.PlayerID(), sess.Name(), msg.Str("text")))
}

// sessionRoom resolves the session's bound room. A stale binding (room
// deleted underneath) reads as not-in-a-room.
func (rt *Router) sessionRoom(sess *Session) (*room.Room, bool) {
	roomID := sess.RoomID()
	if roomID == "" {
		return nil, false
	}
	return rt.registry.Get(roomID)
}

// ensureIdentity binds default identity for sessions that skipped connect.
func (rt *Router) ensureIdentity(sess *Session) {
	if sess.PlayerID() != "" {
		return
	}
	id, name := identityDefaults(sess.addr)
	sess.setIdentity(id, name)
}

// leaveCurrentRoom removes the session's player from its room, broadcasts
// the change to remaining members, and deletes the room when it empties.
func (rt *Router) leaveCurrentRoom(sess *Session) {
	r, ok := rt.sessionRoom(sess)
	sess.setRoom("")
	if !ok {
		return
	}

	r.RemovePlayer(sess.PlayerID())
	// The emptiness re-check and the delete run atomically inside the
	// registry, so a join that raced past the lookup keeps the room alive.
	if rt.registry.DeleteIfEmpty(r.ID()) {
		rt.logger.Info("empty room deleted", zap.String("room_id", r.ID()))
		return
	}
	rt.broadcastRoomUpdate(r)
}

// detach runs the cleanup cascade when a connection dies.
func (rt *Router) detach(sess *Session) {
	rt.sessions.remove(sess.addr)
	rt.leaveCurrentRoom(sess)
	_ = sess.peer.Close()
}

// send serializes one message to exactly one session. Failures are swallowed:
// the subsequent read failure is the authoritative death signal.
func (rt *Router) send(sess *Session, msg protocol.Message) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		rt.logger.Error("encoding outbound message", zap.Error(err))
		return
	}
	if err := sess.peer.WriteFrame(frame); err != nil {
		rt.logger.Debug("dropping write to dead peer",
			zap.String("remote_addr", sess.addr),
			zap.Error(err),
		)
	}
}

// broadcastEvent sends a message to every session bound to the room.
func (rt *Router) broadcastEvent(roomID string, msg protocol.Message) {
	rt.broadcastExcept(roomID, "", msg)
}

func (rt *Router) broadcastExcept(roomID, excludeAddr string, msg protocol.Message) {
	for _, member := range rt.sessions.inRoom(roomID) {
		if member.addr == excludeAddr {
			continue
		}
		rt.send(member, msg)
	}
}

// broadcastRoomUpdate sends the room's public view to every member. Issued
// only after the triggering state change committed, so receivers can always
// re-read at least this state.
func (rt *Router) broadcastRoomUpdate(r *room.Room) {
	rt.broadcastEvent(r.ID(), protocol.RoomUpdate(r.PublicView()))
}

// broadcastRoundStart sends each member its own private round view, so the
// secret word reaches the drawer and nobody else.
func (rt *Router) broadcastRoundStart(r *room.Room) {
	for _, member := range rt.sessions.inRoom(r.ID()) {
		view := r.PrivateView(member.PlayerID())
		rt.send(member, protocol.Event("round_start", map[string]any{
			"round_index": view.RoundIndex,
			"drawer_id":   view.DrawerID,
			"time_left":   view.TimeLeft,
			"word":        view.Word,
		}))
	}
}

// identityDefaults derives the fallback identity from the remote address:
// host as player id, "Player-<port>" as name. Addresses that fail to parse
// fall back to a random id.
func identityDefaults(addr string) (playerID, name string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		id := uuid.NewString()
		return id, "Player-" + id[:8]
	}
	return host, "Player-" + port
}
