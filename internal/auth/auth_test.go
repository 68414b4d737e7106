package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	testSecret = []byte("correct-horse-battery-staple")
	testNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func fixedNow() time.Time { return testNow }

func claimsFor(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "journal-auth",
		Audience:  jwt.ClaimStrings{"journal-api"},
		IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
	}
}

func signHS(t *testing.T, c jwt.RegisteredClaims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newHSVerifier(t *testing.T, deny Denylist) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(JWTConfig{
		Secret:   testSecret,
		Issuer:   "journal-auth",
		Audience: "journal-api",
		Denylist: deny,
		Now:      fixedNow,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func Test_JWTVerifier_HS256(t *testing.T) {
	t.Parallel()
	v := newHSVerifier(t, nil)
	uid, err := v.Verify(context.Background(), signHS(t, claimsFor("user-42"), testSecret))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-42" {
		t.Errorf("uid = %q", uid)
	}
}

func Test_JWTVerifier_Failures(t *testing.T) {
	t.Parallel()
	v := newHSVerifier(t, NewStaticDenylist("revoked-jti"))

	expired := claimsFor("u")
	expired.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Hour))

	revoked := claimsFor("u")
	revoked.ID = "revoked-jti"

	wrongAud := claimsFor("u")
	wrongAud.Audience = jwt.ClaimStrings{"billing"}

	noSub := claimsFor("")

	noExp := claimsFor("u")
	noExp.ExpiresAt = nil

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claimsFor("u")).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name  string
		token string
		want  ErrorKind
	}{
		{"expired", signHS(t, expired, testSecret), KindExpired},
		{"revoked", signHS(t, revoked, testSecret), KindRevoked},
		{"wrong secret", signHS(t, claimsFor("u"), []byte("nope")), KindInvalid},
		{"wrong audience", signHS(t, wrongAud, testSecret), KindInvalid},
		{"missing sub", signHS(t, noSub, testSecret), KindInvalid},
		{"missing exp", signHS(t, noExp, testSecret), KindInvalid},
		{"alg none", none, KindInvalid},
		{"garbage", "not.a.jwt", KindInvalid},
		{"empty", "", KindInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(context.Background(), tc.token)
			if err == nil {
				t.Fatal("want error")
			}
			if got := KindOf(err); got != tc.want {
				t.Errorf("kind = %q, want %q (%v)", got, tc.want, err)
			}
		})
	}
}

type brokenDenylist struct{}

func (brokenDenylist) Revoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func Test_JWTVerifier_DenylistOutage(t *testing.T) {
	t.Parallel()
	v := newHSVerifier(t, brokenDenylist{})
	c := claimsFor("u")
	c.ID = "any"
	_, err := v.Verify(context.Background(), signHS(t, c, testSecret))
	if KindOf(err) != KindOther {
		t.Errorf("kind = %q, want other", KindOf(err))
	}
}

func Test_JWTVerifier_RS256(t *testing.T) {
	t.Parallel()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewJWTVerifier(JWTConfig{PublicKey: &key.PublicKey, Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claimsFor("rs-user")).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	if uid, err := v.Verify(context.Background(), signed); err != nil || uid != "rs-user" {
		t.Errorf("verify = %q, %v", uid, err)
	}

	// An HS256 token signed with the public key bytes must not pass.
	pub, _ := x509.MarshalPKIXPublicKey(&key.PublicKey)
	forged := signHS(t, claimsFor("attacker"), pub)
	if _, err := v.Verify(context.Background(), forged); KindOf(err) != KindInvalid {
		t.Errorf("algorithm confusion: kind = %q", KindOf(err))
	}
}

func Test_NewJWTVerifier_Config(t *testing.T) {
	t.Parallel()
	if _, err := NewJWTVerifier(JWTConfig{}); err == nil {
		t.Error("no key: want error")
	}
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	if _, err := NewJWTVerifier(JWTConfig{Secret: testSecret, PublicKey: &key.PublicKey}); err == nil {
		t.Error("both keys: want error")
	}
}

func Test_NewFromEnv(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	der, _ := x509.MarshalPKIXPublicKey(&key.PublicKey)
	path := filepath.Join(t.TempDir(), "jwt.pub")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AUTH_DISABLED", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_JWT_PUBLIC_KEY_FILE", path)
	t.Setenv("AUTH_REVOKED_TOKEN_IDS", "a, b")
	v, err := NewFromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if v.cfg.PublicKey == nil {
		t.Error("public key not loaded")
	}
	if ok, _ := v.cfg.Denylist.Revoked(context.Background(), "b"); !ok {
		t.Error("denylist should hold trimmed id b")
	}

	t.Setenv("AUTH_DISABLED", "true")
	if v, err := NewFromEnv(); v != nil || err != nil {
		t.Errorf("disabled: %v %v", v, err)
	}
}
