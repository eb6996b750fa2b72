package services

import (
	"context"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/studio"

	"go.uber.org/zap"
)

// Room aggregates everything belonging to one production session: the peer
// set, the worker-side router, the studio composition, the caption and the
// reaction aggregator. A room is created on first join for an unseen id and
// closes itself when the last peer leaves.
type Room struct {
	id     domain.RoomID
	worker ports.Worker
	router ports.Router

	observer ports.AudioLevelObserver

	mu            sync.Mutex
	peers         map[domain.PeerID]*Peer
	caption       string
	coverURL      string
	backgroundURL string
	closed        bool

	studio    *studio.State
	reactions *ReactionAggregator

	handlers map[Method]handlerFunc

	cfg     RoomConfig
	onClose func(*Room)
	logger  *zap.SugaredLogger
}

// newRoom performs the one-time worker-side setup: router creation with the
// configured codec set and the audio-activity observer.
func newRoom(ctx context.Context, id domain.RoomID, worker ports.Worker, cfg RoomConfig, logger *zap.SugaredLogger) (*Room, error) {
	router, err := worker.CreateRouter(ctx, cfg.Codecs)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	observer, err := router.CreateAudioLevelObserver(ctx, ports.AudioLevelObserverOptions{
		MaxEntries: 1,
		Threshold:  cfg.AudioLevelThreshold,
		IntervalMs: cfg.AudioLevelIntervalMs,
	})
	if err != nil {
		router.Close()
		return nil, fmt.Errorf("failed to create audio level observer: %w", err)
	}

	room := &Room{
		id:       id,
		worker:   worker,
		router:   router,
		observer: observer,
		peers:    make(map[domain.PeerID]*Peer),
		studio:   studio.NewState(cfg.StudioWidth, cfg.StudioHeight),
		cfg:      cfg,
		logger:   logger.With("room_id", id),
	}

	room.handlers = room.buildHandlers()

	room.reactions = NewReactionAggregator(cfg.ReactionFlushInterval, func(count int) {
		room.broadcast("reactionsUpdated", map[string]interface{}{"count": count}, "")
	})

	observer.OnVolumes(func(volumes []domain.AudioVolume) {
		if len(volumes) == 0 {
			return
		}
		leading := volumes[0]
		peerID := leading.AppData.PeerIDValue()
		room.broadcast("activeSpeaker", map[string]interface{}{
			"peerId": peerID,
			"volume": leading.Volume,
		}, "")
	})
	observer.OnSilence(func() {
		room.broadcast("activeSpeaker", map[string]interface{}{
			"peerId": nil,
		}, "")
	})

	return room, nil
}

// ID returns the room identifier.
func (r *Room) ID() domain.RoomID {
	return r.id
}

// Closed reports whether the room has been torn down.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// RouterCapabilities returns the negotiated codec set of the room's router.
func (r *Room) RouterCapabilities() domain.RtpCapabilities {
	return r.router.RtpCapabilities()
}

// AddPeer registers a new peer connection. A duplicate peer id evicts the
// previous connection before the new one is admitted.
func (r *Room) AddPeer(peerID domain.PeerID, signal ports.SignalTransport) (*Peer, error) {
	peer := newPeer(peerID, signal)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, domain.ErrRoomClosed
	}
	existing := r.peers[peerID]
	r.peers[peerID] = peer
	r.mu.Unlock()

	// A reconnect with the same id evicts the previous connection. The new
	// peer already occupies the slot, so the room never becomes empty here.
	if existing != nil {
		r.logger.Infow("evicting previous connection for peer", "peer_id", peerID)
		wasJoined := existing.Joined()
		existing.close()

		layout := r.studio.DeleteByPeer(peerID)
		participants := r.studio.DeleteParticipantsByPeer(peerID)
		if wasJoined {
			r.broadcast("peerClosed", map[string]interface{}{"peerId": peerID}, peerID)
			r.broadcast("studioLayoutUpdated", layout, peerID)
			r.broadcast("studioParticipantsUpdated", participants, peerID)
		}
	}

	r.logger.Infow("peer connected", "peer_id", peerID)
	return peer, nil
}

// RemovePeer tears down a peer: closes its transports (which cascades into
// producer/consumer closure on the engine side), prunes it from the studio
// state and, when it was joined, notifies the remaining peers. Closing the
// last peer closes the room.
//
// Removal is instance-aware: after a reconnect the slot belongs to a newer
// connection with the same id, and the evicted connection's teardown must
// not touch it.
func (r *Room) RemovePeer(peer *Peer) {
	peerID := peer.ID()

	r.mu.Lock()
	current, ok := r.peers[peerID]
	if !ok || current != peer {
		r.mu.Unlock()
		peer.close()
		return
	}
	delete(r.peers, peerID)
	empty := len(r.peers) == 0
	r.mu.Unlock()

	wasJoined := peer.Joined()
	peer.close()

	layout := r.studio.DeleteByPeer(peerID)
	participants := r.studio.DeleteParticipantsByPeer(peerID)

	if wasJoined {
		r.broadcast("peerClosed", map[string]interface{}{"peerId": peerID}, peerID)
		r.broadcast("studioLayoutUpdated", layout, peerID)
		r.broadcast("studioParticipantsUpdated", participants, peerID)
	}

	r.logger.Infow("peer disconnected", "peer_id", peerID, "was_joined", wasJoined)

	if empty {
		r.Close()
	}
}

// Peer returns the registered peer with the given id.
func (r *Room) Peer(peerID domain.PeerID) (*Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peer, ok := r.peers[peerID]
	return peer, ok
}

// PeerCount returns the number of connected peers.
func (r *Room) PeerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// joinedPeers returns every joined peer, except the excluded id.
func (r *Room) joinedPeers(except domain.PeerID) []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Peer, 0, len(r.peers))
	for id, peer := range r.peers {
		if id == except {
			continue
		}
		if peer.Joined() {
			out = append(out, peer)
		}
	}
	return out
}

// broadcast notifies every joined peer, except the excluded id.
// Notification failures are discarded.
func (r *Room) broadcast(method string, data interface{}, except domain.PeerID) {
	for _, peer := range r.joinedPeers(except) {
		peer.Notify(method, data)
	}
}

// AddReaction feeds the reaction aggregator; called from the REST surface.
func (r *Room) AddReaction(n int) {
	r.reactions.Add(n)
}

// Caption returns the current caption.
func (r *Room) Caption() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caption
}

// SetCaption stores the caption and broadcasts it to every joined peer.
func (r *Room) SetCaption(caption string) {
	r.mu.Lock()
	r.caption = caption
	r.mu.Unlock()
	r.broadcast("setCaption", map[string]interface{}{"caption": caption}, "")
}

// CoverURL returns the current cover image URL.
func (r *Room) CoverURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coverURL
}

// SetCoverURL stores the cover URL and broadcasts it.
func (r *Room) SetCoverURL(url string) {
	r.mu.Lock()
	r.coverURL = url
	r.mu.Unlock()
	r.broadcast("setCoverUrl", map[string]interface{}{"coverUrl": url}, "")
}

// BackgroundURL returns the current background image URL.
func (r *Room) BackgroundURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backgroundURL
}

// SetBackgroundURL stores the background URL and broadcasts it.
func (r *Room) SetBackgroundURL(url string) {
	r.mu.Lock()
	r.backgroundURL = url
	r.mu.Unlock()
	r.broadcast("setBackgroundUrl", map[string]interface{}{"backgroundUrl": url}, "")
}

// Status is a point-in-time summary for the status logger and metrics.
type Status struct {
	RoomID    domain.RoomID
	Peers     int
	Producers int
	Consumers int
}

// Status counts peers and their owned producers/consumers.
func (r *Room) Status() Status {
	r.mu.Lock()
	peers := make([]*Peer, 0, len(r.peers))
	for _, peer := range r.peers {
		peers = append(peers, peer)
	}
	r.mu.Unlock()

	st := Status{RoomID: r.id, Peers: len(peers)}
	for _, peer := range peers {
		st.Producers += peer.producerCount()
		st.Consumers += peer.consumerCount()
	}
	return st
}

// Close tears the room down: remaining peers, the reaction timer, the
// audio observer and the worker-held router, then unregisters the room.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	peers := make([]*Peer, 0, len(r.peers))
	for _, peer := range r.peers {
		peers = append(peers, peer)
	}
	r.peers = make(map[domain.PeerID]*Peer)
	r.mu.Unlock()

	for _, peer := range peers {
		peer.close()
	}

	r.reactions.Stop()
	r.observer.Close()
	r.router.Close()

	if r.onClose != nil {
		r.onClose(r)
	}

	r.logger.Infow("room closed")
}
