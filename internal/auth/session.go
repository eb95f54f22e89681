package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const SessionCookie = "cafeledger_session"

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidSession = errors.New("invalid session")
)

type claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	secure bool
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithSecureCookies marks issued cookies Secure.
func (s *Sessions) WithSecureCookies(secure bool) *Sessions {
	s.secure = secure
	return s
}

// Issue signs a token for id.
func (s *Sessions) Issue(id Identity) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := claims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    "cafeledger",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Verify parses token and returns its identity.
func (s *Sessions) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoSession
	}
	var c claims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	// Expiry is checked against the injected clock.
	if !c.VerifyExpiresAt(s.now(), true) {
		return Identity{}, ErrSessionExpired
	}
	role, ok := ParseRole(string(c.Role))
	if !ok {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidSession, c.Role)
	}
	return Identity{UserID: c.Subject, Username: c.Username, Role: role}, nil
}

// FromRequest verifies the session cookie of r.
func (s *Sessions) FromRequest(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return Identity{}, ErrNoSession
	}
	return s.Verify(cookie.Value)
}

// SetCookie issues a token for id and writes it as the session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, id Identity) error {
	token, exp, err := s.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie removes the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
