package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRoomID generates a unique room ID
func GenerateRoomID() string {
	return uuid.NewString()
}

// GeneratePeerID generates a unique peer ID
func GeneratePeerID() string {
	return uuid.NewString()
}

// GenerateTransportID generates a unique transport ID
func GenerateTransportID() string {
	return uuid.NewString()
}

// GenerateProducerID generates a unique producer ID
func GenerateProducerID() string {
	return uuid.NewString()
}

// GenerateConsumerID generates a unique consumer ID
func GenerateConsumerID() string {
	return uuid.NewString()
}

// GenerateDataProducerID generates a unique data producer ID
func GenerateDataProducerID() string {
	return uuid.NewString()
}

// GenerateDataConsumerID generates a unique data consumer ID
func GenerateDataConsumerID() string {
	return uuid.NewString()
}

// GenerateRouterID generates a unique router ID
func GenerateRouterID() string {
	return uuid.NewString()
}

// GenerateWorkerID generates a worker ID with a readable prefix
func GenerateWorkerID(index int) string {
	return fmt.Sprintf("worker-%d", index)
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}

// GenerateICEFragment generates a short random token for ICE parameters
func GenerateICEFragment() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
