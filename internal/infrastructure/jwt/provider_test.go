package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grievance-portal/api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         expiry,
	})
	require.NoError(t, err)
	return p
}

func TestSignAndVerify(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("user-1", "citizen")
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "citizen", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestVerify_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	token, err := p.Sign("user-1", "citizen")
	require.NoError(t, err)

	_, err = p.Verify(token)
	require.Error(t, err)
}

func TestVerify_TamperedToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("user-1", "citizen")
	require.NoError(t, err)

	_, err = p.Verify(token + "x")
	require.Error(t, err)
}

func TestVerify_TokenFromOtherKey(t *testing.T) {
	p1 := newTestProvider(t, time.Hour)
	p2 := newTestProvider(t, time.Hour)

	token, err := p1.Sign("user-1", "admin")
	require.NoError(t, err)

	_, err = p2.Verify(token)
	require.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	_, err := p.Verify("not.a.jwt")
	require.Error(t, err)
}
