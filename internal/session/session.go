// Package session issues the signed tokens that tie HTTP and socket requests
// to a (room, participant) seat. Tokens correlate requests; they are not accounts.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// Issuer is the iss claim of every session token.
const Issuer = "bigtwo"

var ErrInvalidToken = errors.New("invalid session token")

// Claims binds a token to one seat.
type Claims struct {
	RoomID        string `json:"rid"`
	ParticipantID string `json:"pid"`
	jwt.StandardClaims
}

// Signer mints and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a token for the participant's seat in a room.
func (s *Signer) Issue(roomID, participantID string) (string, error) {
	if roomID == "" || participantID == "" {
		return "", fmt.Errorf("room and participant are required")
	}
	now := s.now()
	claims := Claims{
		RoomID:        roomID,
		ParticipantID: participantID,
		StandardClaims: jwt.StandardClaims{
			Issuer:    Issuer,
			Subject:   participantID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, algorithm, issuer and expiry.
func (s *Signer) Verify(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || !claims.VerifyIssuer(Issuer, true) {
		return Claims{}, ErrInvalidToken
	}
	if claims.RoomID == "" || claims.ParticipantID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
