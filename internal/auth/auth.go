// Package auth verifies bearer tokens and resolves the calling user.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrorKind classifies a verification failure.
type ErrorKind string

const (
	// KindExpired means the token's exp claim is in the past.
	KindExpired ErrorKind = "expired"
	// KindRevoked means the token's jti is on the denylist.
	KindRevoked ErrorKind = "revoked"
	// KindInvalid means the token is malformed, badly signed, or fails a
	// claim check.
	KindInvalid ErrorKind = "invalid"
	// KindOther means verification could not complete (e.g. denylist outage).
	KindOther ErrorKind = "other"
)

// Error is returned by Verifier.Verify.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err == nil {
		return "auth: token " + string(e.Kind)
	}
	return fmt.Sprintf("auth: token %s: %v", e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err, or KindOther when err is not an *Error.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindOther
}

// Verifier resolves a bearer token to a user ID.
// Implementations must be safe to call from multiple goroutines.
type Verifier interface {
	// Verify returns the user ID carried by token, or an *Error.
	Verify(ctx context.Context, token string) (string, error)
}

// Denylist reports revoked token IDs.
type Denylist interface {
	// Revoked reports whether the token with the given jti was revoked.
	Revoked(ctx context.Context, jti string) (bool, error)
}

// StaticDenylist is an in-memory Denylist. It is safe for concurrent use.
type StaticDenylist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewStaticDenylist returns a denylist holding ids.
func NewStaticDenylist(ids ...string) *StaticDenylist {
	d := &StaticDenylist{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.Revoke(id)
	}
	return d
}

// Revoke adds jti to the list. Blank IDs are ignored.
func (d *StaticDenylist) Revoke(jti string) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return
	}
	d.mu.Lock()
	d.ids[jti] = struct{}{}
	d.mu.Unlock()
}

// Revoked implements Denylist.
func (d *StaticDenylist) Revoked(_ context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[jti]
	return ok, nil
}

// JWTConfig configures a JWTVerifier. Exactly one of Secret and PublicKey
// must be set.
type JWTConfig struct {
	// Secret is the HS256 shared secret.
	Secret []byte

	// PublicKey verifies RS256 signatures.
	PublicKey *rsa.PublicKey

	// Issuer, when set, must equal the iss claim.
	Issuer string

	// Audience, when set, must appear in the aud claim.
	Audience string

	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration

	// Denylist, when set, rejects revoked jti values.
	Denylist Denylist

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// JWTVerifier implements Verifier for signed JWTs whose sub claim is the
// user ID.
type JWTVerifier struct {
	// cfg holds the resolved configuration.
	cfg JWTConfig

	// parser applies method, issuer, audience and expiry checks.
	parser *jwt.Parser

	// key is the verification key handed to the parser.
	key any
}

// NewJWTVerifier validates cfg and returns a verifier.
func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	var (
		method string
		key    any
	)
	switch {
	case len(cfg.Secret) > 0 && cfg.PublicKey != nil:
		return nil, fmt.Errorf("auth: set either a shared secret or a public key, not both")
	case len(cfg.Secret) > 0:
		method, key = jwt.SigningMethodHS256.Alg(), cfg.Secret
	case cfg.PublicKey != nil:
		method, key = jwt.SigningMethodRS256.Alg(), cfg.PublicKey
	default:
		return nil, fmt.Errorf("auth: AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY_FILE is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}

	return &JWTVerifier{cfg: cfg, parser: jwt.NewParser(opts...), key: key}, nil
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &Error{Kind: KindInvalid, Err: errors.New("empty token")}
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", &Error{Kind: KindExpired, Err: err}
	case err != nil:
		return "", &Error{Kind: KindInvalid, Err: err}
	}

	if claims.Subject == "" {
		return "", &Error{Kind: KindInvalid, Err: errors.New("missing sub claim")}
	}

	if v.cfg.Denylist != nil && claims.ID != "" {
		revoked, err := v.cfg.Denylist.Revoked(ctx, claims.ID)
		if err != nil {
			return "", &Error{Kind: KindOther, Err: fmt.Errorf("denylist lookup: %w", err)}
		}
		if revoked {
			return "", &Error{Kind: KindRevoked, Err: fmt.Errorf("jti %s", claims.ID)}
		}
	}
	return claims.Subject, nil
}

// NewFromEnv builds a JWTVerifier from environment variables. It returns
// (nil, nil) when AUTH_DISABLED is true, which turns authentication off
// for local development.
//
//	AUTH_JWT_SECRET           HS256 shared secret
//	AUTH_JWT_PUBLIC_KEY_FILE  PEM file holding the RS256 public key
//	AUTH_JWT_ISSUER           required iss claim
//	AUTH_JWT_AUDIENCE         required aud entry
//	AUTH_JWT_LEEWAY           clock skew tolerance (Go duration, default 30s)
//	AUTH_REVOKED_TOKEN_IDS    comma-separated revoked jti values
func NewFromEnv() (*JWTVerifier, error) {
	if strings.EqualFold(os.Getenv("AUTH_DISABLED"), "true") {
		return nil, nil
	}

	cfg := JWTConfig{
		Secret:   []byte(os.Getenv("AUTH_JWT_SECRET")),
		Issuer:   os.Getenv("AUTH_JWT_ISSUER"),
		Audience: os.Getenv("AUTH_JWT_AUDIENCE"),
		Leeway:   30 * time.Second,
	}
	if v := os.Getenv("AUTH_JWT_LEEWAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("auth: parse AUTH_JWT_LEEWAY: %w", err)
		}
		cfg.Leeway = d
	}
	if path := os.Getenv("AUTH_JWT_PUBLIC_KEY_FILE"); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("auth: read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("auth: parse public key: %w", err)
		}
		cfg.PublicKey = key
	}
	if ids := os.Getenv("AUTH_REVOKED_TOKEN_IDS"); ids != "" {
		cfg.Denylist = NewStaticDenylist(strings.Split(ids, ",")...)
	}
	return NewJWTVerifier(cfg)
}
