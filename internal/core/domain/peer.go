package domain

// DeviceInfo identifies the client software of a peer.
type DeviceInfo struct {
	Flag    string `json:"flag"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PeerInfo is the public view of a peer shared with other room members.
type PeerInfo struct {
	ID          PeerID     `json:"id"`
	DisplayName string     `json:"displayName"`
	Device      DeviceInfo `json:"device"`
}
