package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrExpired        = errors.New("token is expired")
	ErrInvalid        = errors.New("token is invalid")
	ErrKeyUnavailable = errors.New("signing key is unavailable")
)

// Metadata holds the registered claims of a token.
type Metadata struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Engine interface {
	// Generate creates a token string containing the obj and expiration. Every call gets a new
	// unique id, so two tokens generated in the same second are still different.
	Generate(subject string, expiration time.Duration, obj any) (string, Metadata, error)

	// Verify if token is invalid or expired. Then parse the obj from token to obj parameter. The
	// obj paramter must be a pointer. Returned errors wrap ErrExpired, ErrInvalid or
	// ErrKeyUnavailable.
	Verify(token string, obj any) (Metadata, error)
}

type standardClaims struct {
	jwt.RegisteredClaims
	Object any `json:"obj"`
}

type Option func(*jwtEngine)

// WithClock replaces time.Now as the source of issuance and validation time.
func WithClock(now func() time.Time) Option {
	return func(e *jwtEngine) {
		e.now = now
	}
}

type jwtEngine struct {
	secret string
	now    func() time.Time
}

func NewEngine(secret string, opts ...Option) Engine {
	e := &jwtEngine{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *jwtEngine) Generate(subject string, expiration time.Duration, obj any) (string, Metadata, error) {
	if e.secret == "" {
		return "", Metadata{}, ErrKeyUnavailable
	}

	now := e.now()
	claims := standardClaims{
		Object: obj,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(e.secret))
	if err != nil {
		return "", Metadata{}, err
	}

	return t, metadataOf(claims.RegisteredClaims), nil
}

func (e *jwtEngine) Verify(token string, obj any) (Metadata, error) {
	if e.secret == "" {
		return Metadata{}, ErrKeyUnavailable
	}

	var claims standardClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(e.secret), nil
	})
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.ExpiresAt == nil {
		return Metadata{}, fmt.Errorf("%w: token has no expiration", ErrInvalid)
	}

	now := e.now()
	if !claims.VerifyExpiresAt(now, true) {
		return Metadata{}, ErrExpired
	}

	if !claims.VerifyNotBefore(now, false) {
		return Metadata{}, fmt.Errorf("%w: token is not valid yet", ErrInvalid)
	}

	if err := mapstructure.Decode(claims.Object, obj); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return metadataOf(claims.RegisteredClaims), nil
}

func metadataOf(claims jwt.RegisteredClaims) Metadata {
	m := Metadata{ID: claims.ID, Subject: claims.Subject}
	if claims.IssuedAt != nil {
		m.IssuedAt = claims.IssuedAt.Time
	}

	if claims.ExpiresAt != nil {
		m.ExpiresAt = claims.ExpiresAt.Time
	}

	return m
}
