package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/tracker/internal/credential"
)

func TestDecoyFallsBackToConstantHash(t *testing.T) {
	failing := func(string) (string, error) { return "", errors.New("entropy exhausted") }
	assert.Equal(t, fallbackDecoyHash, newDecoy(failing))

	cost, err := bcrypt.Cost([]byte(fallbackDecoyHash))
	require.NoError(t, err)
	assert.Equal(t, credential.HashCost, cost)
	assert.False(t, credential.VerifyPassword("", fallbackDecoyHash))
}

func TestDecoyIsRealHash(t *testing.T) {
	h := decoy()
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, credential.HashCost, cost)
}
