package domain

// StudioSize is the composition canvas size in pixels.
type StudioSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StudioItem is one media source composed onto the studio canvas.
// PosX/PosY/Width/Height are computed by the layout engine only.
type StudioItem struct {
	PeerID          PeerID     `json:"peerId"`
	AudioProducerID ProducerID `json:"audioProducerId"`
	VideoProducerID ProducerID `json:"videoProducerId"`
	MediaID         MediaID    `json:"mediaId"`
	VideoWidth      int        `json:"videoWidth"`
	VideoHeight     int        `json:"videoHeight"`
	PosX            int        `json:"posX"`
	PosY            int        `json:"posY"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
}

// SameSource reports whether two items reference the same producer triple.
func (i StudioItem) SameSource(o StudioItem) bool {
	return i.PeerID == o.PeerID &&
		i.AudioProducerID == o.AudioProducerID &&
		i.VideoProducerID == o.VideoProducerID
}

// Participant is a presence record of who could be shown in the studio,
// looser than StudioItem and used purely for display.
type Participant struct {
	PeerID       PeerID  `json:"peerId"`
	MediaID      MediaID `json:"mediaId"`
	DisplayName  string  `json:"displayName"`
	AudioEnabled bool    `json:"audio"`
	VideoEnabled bool    `json:"video"`
}

// StudioPattern is a layout preset selectable by the studio operator.
type StudioPattern struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// StudioPatterns is the fixed pattern catalog.
var StudioPatterns = []StudioPattern{
	{ID: 0, Label: "grid", Type: "grid"},
	{ID: 1, Label: "main", Type: "main"},
}
