package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenExpiry      = 24 * time.Hour
	tokenRateWindow  = 60 * time.Second
	maxTokenRequests = 10
)

var ErrInvalidToken = errors.New("invalid observer token")

// ObserverClaims is what a validated token grants.
type ObserverClaims struct {
	Subject string
	Drive   bool // may send input for the player
}

// Auth issues and validates observer tokens.
type Auth struct {
	jwtSecret []byte

	// Rate limiting for token requests (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth signing with secret. An empty secret is replaced
// by random bytes, which invalidates tokens across restarts.
func NewAuth(secret string) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate JWT secret: " + err.Error())
		}
	}
	return &Auth{
		jwtSecret: key,
		rateMap:   make(map[string]*rateEntry),
	}
}

// IssueToken signs a token for subject.
func (a *Auth) IssueToken(subject string, drive bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"drv": drive,
		"exp": now.Add(tokenExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken checks signature and expiry and returns the claims.
func (a *Auth) ValidateToken(tokenStr string) (ObserverClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return ObserverClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ObserverClaims{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return ObserverClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	drive, _ := claims["drv"].(bool)
	return ObserverClaims{Subject: sub, Drive: drive}, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(tokenRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxTokenRequests
}
