package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"

	"chicago/internal/domain"
)

// TokenService issues and verifies signed rejoin tokens, letting a
// disconnected player reclaim their seat in a running match.
type TokenService struct {
	secret string
	issuer string
}

// DefaultRejoinTTL bounds how long a dropped seat stays reclaimable.
const DefaultRejoinTTL = 2 * time.Hour

func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{secret: secret, issuer: issuer}
}

// RejoinClaims is the verified content of a rejoin token.
type RejoinClaims struct {
	MatchID string
	UserID  string
	Seat    domain.Seat
}

// GenerateRejoinToken signs a token binding a user to a seat in a match.
func (s *TokenService) GenerateRejoinToken(matchID, userID string, seat domain.Seat, ttl time.Duration) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if matchID == "" || userID == "" {
		return "", fmt.Errorf("match id and user id are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("token config is incomplete")
	}
	if ttl <= 0 {
		ttl = DefaultRejoinTTL
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  userID,
		"mid":  matchID,
		"seat": seat.String(),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyRejoinToken checks the signature, expiry and issuer of a rejoin
// token and returns its claims.
func (s *TokenService) VerifyRejoinToken(tokenString string) (RejoinClaims, error) {
	if s == nil || s.secret == "" {
		return RejoinClaims{}, fmt.Errorf("token config is incomplete")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return RejoinClaims{}, fmt.Errorf("parse rejoin token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return RejoinClaims{}, fmt.Errorf("rejoin token is invalid")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return RejoinClaims{}, fmt.Errorf("rejoin token issuer mismatch")
	}

	sub, _ := claims["sub"].(string)
	mid, _ := claims["mid"].(string)
	seatName, _ := claims["seat"].(string)
	if sub == "" || mid == "" {
		return RejoinClaims{}, fmt.Errorf("rejoin token is missing claims")
	}
	seat, err := domain.ParseSeat(seatName)
	if err != nil {
		return RejoinClaims{}, fmt.Errorf("rejoin token seat: %w", err)
	}
	return RejoinClaims{MatchID: mid, UserID: sub, Seat: seat}, nil
}
