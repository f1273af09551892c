package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/persistence/middleware"
	"github.com/parleyhq/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func chatty() *domain.Session {
	s := domain.NewSession("s1", "meet-alex")
	s.DisplayName = "Sam"
	s.Scores[domain.Empathy] = 3
	s.Transcript = append(s.Transcript,
		domain.TranscriptEntry{Speaker: domain.SpeakerNPC, Text: "How can I reach you?"},
		domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: "Mail sam@example.com or call +1 555 123 4567."},
	)
	return s
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	tests.RunSessionStoreContract(t, mw(memory.New()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.New()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	original := chatty()
	require.NoError(t, secure.Save(ctx, "s1", original))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Transcript, "transcript must not be stored in clear")
	assert.Empty(t, stored.Scores)
	assert.Empty(t, stored.DisplayName)
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, original.Status, stored.Status)

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, original.Transcript, loaded.Transcript)
	assert.Equal(t, 3, loaded.Scores[domain.Empathy])
	assert.Equal(t, "Sam", loaded.DisplayName)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.New()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	oldStore := mwOld(underlying)
	require.NoError(t, oldStore.Save(ctx, "s1", chatty()))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	newStore := mwNew(underlying)

	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback key must decrypt")

	require.NoError(t, newStore.Save(ctx, "s1", loaded))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainSessions(t *testing.T) {
	underlying := memory.New()
	require.NoError(t, underlying.Save(context.Background(), "s1", chatty()))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	_, err = mw(underlying).Load(context.Background(), "s1")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.New()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns, middleware.WithMaskedDisplayName())
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	session := chatty()
	require.NoError(t, store.Save(ctx, "s1", session))

	assert.Contains(t, session.Transcript[1].Text, "sam@example.com", "in-memory session must not be modified")
	assert.Equal(t, "Sam", session.DisplayName)

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "How can I reach you?", stored.Transcript[0].Text)
	assert.Equal(t, "Mail *** or call ***.", stored.Transcript[1].Text)
	assert.Equal(t, middleware.Mask, stored.DisplayName)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	underlying := memory.New()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	// PII runs first, so the sealed payload is already masked.
	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", chatty()))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Mail *** or call ***.", loaded.Transcript[1].Text)
}
