package studio

import (
	"testing"

	"stagecast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(peer string) domain.StudioItem {
	return domain.StudioItem{
		PeerID:          domain.PeerID(peer),
		AudioProducerID: domain.ProducerID(peer + "-audio"),
		VideoProducerID: domain.ProducerID(peer + "-video"),
		MediaID:         domain.MediaID(peer + "-media"),
		VideoWidth:      320,
		VideoHeight:     240,
	}
}

func TestState_AddMediaDeduplicatesTriple(t *testing.T) {
	s := NewState(1920, 1080)

	layout := s.AddMedia(item("a"))
	assert.Len(t, layout, 1)

	layout = s.AddMedia(item("a"))
	assert.Len(t, layout, 1, "same producer triple must not be added twice")

	layout = s.AddMedia(item("b"))
	assert.Len(t, layout, 2)
}

func TestState_AddMediaComputesGeometry(t *testing.T) {
	s := NewState(1920, 1080)
	layout := s.AddMedia(item("a"))

	require.Len(t, layout, 1)
	assert.Equal(t, 1080, layout[0].Height)
	assert.NotZero(t, layout[0].Width)
}

func TestState_DeleteByPeer(t *testing.T) {
	s := NewState(1920, 1080)
	s.AddMedia(item("a"))
	s.AddMedia(item("b"))
	s.AddMedia(item("c"))

	layout := s.DeleteByPeer("b")
	require.Len(t, layout, 2)
	for _, it := range layout {
		assert.NotEqual(t, domain.PeerID("b"), it.PeerID)
	}

	// Remaining items got fresh positions for the 2-item grid.
	assert.Equal(t, 270, layout[0].PosY)
}

func TestState_DeleteByProducerPrunesEitherSlot(t *testing.T) {
	s := NewState(1920, 1080)
	s.AddMedia(item("a"))
	s.AddMedia(item("b"))

	layout := s.DeleteByProducer("a-video")
	require.Len(t, layout, 1)
	assert.Equal(t, domain.PeerID("b"), layout[0].PeerID)

	layout = s.DeleteByProducer("b-audio")
	assert.Empty(t, layout)
}

func TestState_ToMainMovesItemToHead(t *testing.T) {
	s := NewState(1920, 1080)
	s.AddMedia(item("a"))
	s.AddMedia(item("b"))
	s.AddMedia(item("c"))

	layout := s.ToMain(item("c"))
	require.Len(t, layout, 3)
	assert.Equal(t, domain.PeerID("c"), layout[0].PeerID)
	assert.Equal(t, domain.PeerID("a"), layout[1].PeerID)
	assert.Equal(t, domain.PeerID("b"), layout[2].PeerID)
}

func TestState_Participants(t *testing.T) {
	s := NewState(1920, 1080)

	list := s.AddParticipant(domain.Participant{PeerID: "a", MediaID: "m1", DisplayName: "Alice", AudioEnabled: true})
	assert.Len(t, list, 1)

	// duplicate mediaId ignored
	list = s.AddParticipant(domain.Participant{PeerID: "a", MediaID: "m1"})
	assert.Len(t, list, 1)

	list = s.SetParticipantAudio("m1", false)
	assert.False(t, list[0].AudioEnabled)

	list = s.SetParticipantVideo("m1", true)
	assert.True(t, list[0].VideoEnabled)

	list = s.DeleteParticipantByMediaID("m1")
	assert.Empty(t, list)
}

func TestState_DeleteParticipantsByPeer(t *testing.T) {
	s := NewState(1920, 1080)
	s.AddParticipant(domain.Participant{PeerID: "a", MediaID: "m1"})
	s.AddParticipant(domain.Participant{PeerID: "a", MediaID: "m2"})
	s.AddParticipant(domain.Participant{PeerID: "b", MediaID: "m3"})

	list := s.DeleteParticipantsByPeer("a")
	require.Len(t, list, 1)
	assert.Equal(t, domain.MediaID("m3"), list[0].MediaID)
}

func TestState_PatternID(t *testing.T) {
	s := NewState(1920, 1080)
	assert.Equal(t, 0, s.PatternID())
	s.SetPatternID(1)
	assert.Equal(t, 1, s.PatternID())
}
