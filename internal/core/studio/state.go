package studio

import (
	"sync"

	"stagecast/internal/core/domain"
)

// State holds a room's studio composition: the on-air item list with
// computed geometry, the participant presence list, and the selected
// pattern. All mutation recomputes the layout.
type State struct {
	mu           sync.RWMutex
	width        int
	height       int
	patternID    int
	items        []domain.StudioItem
	participants []domain.Participant
}

// NewState creates studio state for a canvas of the given size.
func NewState(width, height int) *State {
	return &State{
		width:  width,
		height: height,
	}
}

// Size returns the canvas size.
func (s *State) Size() domain.StudioSize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StudioSize{Width: s.width, Height: s.height}
}

// PatternID returns the selected layout pattern id.
func (s *State) PatternID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patternID
}

// SetPatternID selects a layout pattern.
func (s *State) SetPatternID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patternID = id
}

// Layout returns the current item list with computed geometry.
func (s *State) Layout() []domain.StudioItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StudioItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddMedia appends an item unless an item with the same producer triple is
// already present, then recomputes the layout. Returns the new layout.
func (s *State) AddMedia(item domain.StudioItem) []domain.StudioItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.SameSource(item) {
			return s.layoutLocked()
		}
	}
	s.items = append(s.items, item)
	s.recomputeLocked()
	return s.layoutLocked()
}

// ToMain moves the item matching the given triple to the head of the list
// (grid slot 0) and recomputes.
func (s *State) ToMain(item domain.StudioItem) []domain.StudioItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.SameSource(item) {
			moved := s.items[i]
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.items = append([]domain.StudioItem{moved}, s.items...)
			s.recomputeLocked()
			break
		}
	}
	return s.layoutLocked()
}

// DeleteMedia removes items matching the given triple and recomputes.
func (s *State) DeleteMedia(item domain.StudioItem) []domain.StudioItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, existing := range s.items {
		if !existing.SameSource(item) {
			kept = append(kept, existing)
		}
	}
	s.items = kept
	s.recomputeLocked()
	return s.layoutLocked()
}

// DeleteByPeer removes every item owned by the given peer and recomputes.
func (s *State) DeleteByPeer(peerID domain.PeerID) []domain.StudioItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, existing := range s.items {
		if existing.PeerID != peerID {
			kept = append(kept, existing)
		}
	}
	s.items = kept
	s.recomputeLocked()
	return s.layoutLocked()
}

// DeleteByProducer removes items referencing the given producer id in either
// slot and recomputes.
func (s *State) DeleteByProducer(producerID domain.ProducerID) []domain.StudioItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, existing := range s.items {
		if existing.AudioProducerID != producerID && existing.VideoProducerID != producerID {
			kept = append(kept, existing)
		}
	}
	s.items = kept
	s.recomputeLocked()
	return s.layoutLocked()
}

// Participants returns the presence list.
func (s *State) Participants() []domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// AddParticipant appends a presence record unless the mediaId is already
// present. Returns the new list.
func (s *State) AddParticipant(p domain.Participant) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participants {
		if existing.MediaID == p.MediaID {
			return s.participantsLocked()
		}
	}
	s.participants = append(s.participants, p)
	return s.participantsLocked()
}

// SetParticipantAudio toggles the audio flag on the record with the given
// mediaId.
func (s *State) SetParticipantAudio(mediaID domain.MediaID, enabled bool) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		if s.participants[i].MediaID == mediaID {
			s.participants[i].AudioEnabled = enabled
		}
	}
	return s.participantsLocked()
}

// SetParticipantVideo toggles the video flag on the record with the given
// mediaId.
func (s *State) SetParticipantVideo(mediaID domain.MediaID, enabled bool) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		if s.participants[i].MediaID == mediaID {
			s.participants[i].VideoEnabled = enabled
		}
	}
	return s.participantsLocked()
}

// DeleteParticipantByMediaID removes the record with the given mediaId.
func (s *State) DeleteParticipantByMediaID(mediaID domain.MediaID) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.participants[:0]
	for _, existing := range s.participants {
		if existing.MediaID != mediaID {
			kept = append(kept, existing)
		}
	}
	s.participants = kept
	return s.participantsLocked()
}

// DeleteParticipantsByPeer removes every record owned by the given peer.
func (s *State) DeleteParticipantsByPeer(peerID domain.PeerID) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.participants[:0]
	for _, existing := range s.participants {
		if existing.PeerID != peerID {
			kept = append(kept, existing)
		}
	}
	s.participants = kept
	return s.participantsLocked()
}

func (s *State) recomputeLocked() {
	s.items = ComputeLayout(s.items, s.width, s.height)
}

func (s *State) layoutLocked() []domain.StudioItem {
	out := make([]domain.StudioItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *State) participantsLocked() []domain.Participant {
	out := make([]domain.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}
