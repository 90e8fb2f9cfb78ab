package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieIssuer = "appraisal-portal"

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieCodec carries the browser's scope id in a signed cookie so a client
// cannot pick another browser's scope.
type CookieCodec struct {
	Name   string
	Secure bool
	TTL    time.Duration
	secret []byte
	now    func() time.Time
}

func NewCookieCodec(name, secret string, ttl time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{
		Name:   name,
		Secure: secure,
		TTL:    ttl,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// NewScope returns a fresh random scope id.
func NewScope() string {
	return uuid.NewString()
}

func (c *CookieCodec) Encode(scope string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    cookieIssuer,
		Subject:   scope,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode returns the scope id of a cookie value issued by Encode.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidCookie
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}

// Cookie builds the http cookie for scope.
func (c *CookieCodec) Cookie(scope string) (*http.Cookie, error) {
	value, err := c.Encode(scope)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// FromRequest extracts the scope from the request cookie, if any valid one exists.
func (c *CookieCodec) FromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	scope, err := c.Decode(ck.Value)
	if err != nil {
		return "", false
	}
	return scope, true
}
