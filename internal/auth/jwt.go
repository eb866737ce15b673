// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	// Secret enables HS256 tokens.
	Secret string
	// PublicKeysPEM holds one or more RSA public keys or certificates for RS256.
	PublicKeysPEM []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Verifier accepts HMAC and/or RSA signed tokens that carry an email claim.
type Verifier struct {
	secret   []byte
	rsaKeys  []*rsa.PublicKey
	issuer   string
	audience string
	leeway   time.Duration
}

type identityClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{
		secret:   []byte(cfg.Secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		leeway:   cfg.Leeway,
	}
	if len(cfg.PublicKeysPEM) > 0 {
		keys, err := parseRSAKeys(cfg.PublicKeysPEM)
		if err != nil {
			return nil, err
		}
		v.rsaKeys = keys
	}
	if len(v.secret) == 0 && len(v.rsaKeys) == 0 {
		return nil, errors.New("auth: no JWT secret or public key configured")
	}
	return v, nil
}

// NewVerifierFromFile reads PEM keys from path when set.
func NewVerifierFromFile(cfg Config, path string) (*Verifier, error) {
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("auth: read public key: %w", err)
		}
		cfg.PublicKeysPEM = raw
	}
	return NewVerifier(cfg)
}

func parseRSAKeys(raw []byte) ([]*rsa.PublicKey, error) {
	var keys []*rsa.PublicKey
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem.EncodeToMemory(block))
		if err != nil {
			return nil, fmt.Errorf("auth: parse public key: %w", err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, errors.New("auth: no PEM blocks found")
	}
	return keys, nil
}

func (v *Verifier) methods() []string {
	var out []string
	if len(v.secret) > 0 {
		out = append(out, jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg())
	}
	if len(v.rsaKeys) > 0 {
		out = append(out, jwt.SigningMethodRS256.Alg())
	}
	return out
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		set := jwt.VerificationKeySet{}
		for _, k := range v.rsaKeys {
			set.Keys = append(set.Keys, k)
		}
		return set, nil
	}
	return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
}

// Verify checks signature, expiry, issuer and audience and returns the identity.
func (v *Verifier) Verify(_ context.Context, raw string) (domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Identity{}, domain.UnauthorizedError{Msg: "missing token"}
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims identityClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, v.keyFunc, opts...); err != nil {
		return domain.Identity{}, domain.UnauthorizedError{Msg: "invalid token", Err: err}
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return domain.Identity{}, domain.UnauthorizedError{Msg: "email is not verified"}
	}
	email := utils.NormalizeEmail(claims.Email)
	if email == "" {
		return domain.Identity{}, domain.UnauthorizedError{Msg: "token has no email"}
	}
	return domain.Identity{Email: email, Name: claims.Name, Picture: claims.Picture}, nil
}

// Sign issues an HS256 token for id. Local development and tests only; real
// tokens come from the identity provider.
func (v *Verifier) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("auth: signing needs a JWT secret")
	}
	now := time.Now()
	claims := identityClaims{
		Email:   id.Email,
		Name:    id.Name,
		Picture: id.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
