package services

import (
	"errors"
	"time"

	"stagecast/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AuthService issues and validates guest tokens. A guest token grants access
// to exactly one room and carries the peer identity the client should use
// when connecting to the signaling endpoint.
type AuthService interface {
	IssueGuestToken(roomID domain.RoomID, peerID domain.PeerID, displayName string) (string, error)
	ValidateToken(tokenString string) (*GuestClaims, error)
}

type GuestClaims struct {
	RoomID      domain.RoomID `json:"roomId"`
	PeerID      domain.PeerID `json:"peerId"`
	DisplayName string        `json:"displayName"`
	jwt.RegisteredClaims
}

type authService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) IssueGuestToken(roomID domain.RoomID, peerID domain.PeerID, displayName string) (string, error) {
	claims := &GuestClaims{
		RoomID:      roomID,
		PeerID:      peerID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) ValidateToken(tokenString string) (*GuestClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &GuestClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*GuestClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
