package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenExpired    = errors.New("token expired")
)

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	Subject string
	Role    string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanActOn reports whether the identity may read or mutate a resource owned by owner.
func (i Identity) CanActOn(owner string) bool {
	return i.Subject == owner || i.IsAdmin()
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// CreateAccessToken signs a token for sub. A non-positive ttl produces a token without expiry.
func CreateAccessToken(secret, sub, role string, ttl time.Duration) (string, error) {
	claims := Claims{Sub: sub, Role: role}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (v *Verifier) ParseValidate(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrUnauthenticated
	}
	if c.Sub == "" {
		return nil, fmt.Errorf("%w: no subject", ErrUnauthenticated)
	}
	return c, nil
}

// Identify parses an Authorization header value into an Identity.
func (v *Verifier) Identify(authHeader string) (Identity, error) {
	tok := BearerToken(authHeader)
	if tok == "" {
		return Identity{}, ErrUnauthenticated
	}
	c, err := v.ParseValidate(tok)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Subject: c.Sub, Role: c.Role}, nil
}

func BearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
