package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"onlineticket/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierRoundTripHMAC(t *testing.T) {
	v, err := NewVerifier(Config{Secret: "s3cret", Issuer: "ticket-idp", Audience: "online-ticket"})
	require.NoError(t, err)

	tok, err := v.Sign(domain.Identity{Email: "Rider@Example.com", Name: "Rider"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "rider@example.com", id.Email)
	assert.Equal(t, "Rider", id.Name)
}

func TestVerifierRejects(t *testing.T) {
	v, err := NewVerifier(Config{Secret: "s3cret", Audience: "online-ticket"})
	require.NoError(t, err)
	other, err := NewVerifier(Config{Secret: "other"})
	require.NoError(t, err)

	expired, err := v.Sign(domain.Identity{Email: "a@b.c"}, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := other.Sign(domain.Identity{Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)
	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "online-ticket",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	wrongAud, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "a@b.c",
		"aud":   "someone-else",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"expired":   expired,
		"wrong key": wrongKey,
		"no email":  noEmail,
		"wrong aud": wrongAud,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			require.Error(t, err)
			assert.True(t, domain.IsUnauthorized(err), "got %v", err)
		})
	}
}

func TestVerifierRSAKeySet(t *testing.T) {
	k1, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	k2, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var pemBytes []byte
	for _, k := range []*rsa.PrivateKey{k1, k2} {
		der, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
		require.NoError(t, err)
		pemBytes = append(pemBytes, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})...)
	}
	v, err := NewVerifier(Config{PublicKeysPEM: pemBytes})
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"email": "vendor@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(k2)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "vendor@example.com", id.Email)

	// HS tokens are refused when only RSA keys are configured
	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "vendor@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("x"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), hs)
	assert.True(t, domain.IsUnauthorized(err))
}

func TestNewVerifierNeedsKeyMaterial(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
	_, err = NewVerifier(Config{PublicKeysPEM: []byte("nope")})
	assert.Error(t, err)
}
