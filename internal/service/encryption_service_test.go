package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte key in hex (64 chars)
const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_NewInvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("shortkey")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("zz23456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	assert.Error(t, err)
}

func TestAESEncryptionService_SealOpen(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	plaintext := []byte(`{"memo":"deadbeef","item_price":1.5,"status":"PENDING"}`)
	sealed, err := svc.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "deadbeef")

	opened, err := svc.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestAESEncryptionService_DifferentNonces(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	plaintext := []byte("same payload")
	c1, err := svc.Seal(plaintext)
	require.NoError(t, err)
	c2, err := svc.Seal(plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2, "random nonce must vary the ciphertext")

	d1, _ := svc.Open(c1)
	d2, _ := svc.Open(c2)
	assert.Equal(t, d1, d2)
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	sealed, err := svc.Seal([]byte("secret"))
	require.NoError(t, err)

	tampered := "AA" + sealed[2:]
	if tampered == sealed {
		tampered = "BB" + sealed[2:]
	}
	_, err = svc.Open(tampered)
	assert.Error(t, err)
}

func TestAESEncryptionService_WrongKey(t *testing.T) {
	svc1, _ := NewAESEncryptionService(testAESKey)
	otherKey := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	svc2, _ := NewAESEncryptionService(otherKey)

	sealed, err := svc1.Seal([]byte("record"))
	require.NoError(t, err)

	_, err = svc2.Open(sealed)
	assert.Error(t, err)
}

func TestAESEncryptionService_InvalidCiphertext(t *testing.T) {
	svc, _ := NewAESEncryptionService(testAESKey)

	_, err := svc.Open("not b64!!!")
	assert.Error(t, err)

	// Valid base64, shorter than a nonce.
	_, err = svc.Open("YWJj")
	assert.Error(t, err)
}
