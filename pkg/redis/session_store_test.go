package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionKey = "0000000000000000000000000000000000000000000000000000000000000000"

func TestNewSessionStoreValidation(t *testing.T) {
	_, err := NewSessionStore("zz")
	assert.Error(t, err)

	_, err = NewSessionStore("0011")
	assert.Error(t, err)

	store, err := NewSessionStore(testSessionKey)
	assert.NoError(t, err)
	assert.NotNil(t, store)
}

func TestSessionStoreEncryptDecrypt(t *testing.T) {
	store, err := NewSessionStore(testSessionKey)
	require.NoError(t, err)

	enc, err := store.encrypt([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.NotEmpty(t, enc)

	dec, err := store.decrypt(enc)
	require.NoError(t, err)
	assert.Contains(t, string(dec), `"x":1`)

	_, err = store.decrypt("00")
	assert.Error(t, err)

	_, err = store.decrypt("zz-not-hex")
	assert.Error(t, err)
}

func TestSessionStoreEncryptDecrypt_InvalidKeyMaterial(t *testing.T) {
	store := &SessionStore{encryptionKey: []byte("short-key")}
	_, err := store.encrypt([]byte("x"))
	assert.Error(t, err)

	_, err = store.decrypt("00")
	assert.Error(t, err)
}

func TestSessionStoreCreateGetDeleteSuccess(t *testing.T) {
	srv := miniredis.RunT(t)
	SetClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))

	store, err := NewSessionStore(testSessionKey)
	require.NoError(t, err)

	ctx := context.Background()
	data := &SessionData{UserID: "u-1", AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, store.CreateSession(ctx, "sid-1", data, time.Minute))

	raw, err := srv.Get("session:sid-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "access")

	got, err := store.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	srv.FastForward(2 * time.Minute)
	_, err = store.GetSession(ctx, "sid-1")
	assert.True(t, IsNil(err))

	require.NoError(t, store.CreateSession(ctx, "sid-2", data, time.Minute))
	require.NoError(t, store.DeleteSession(ctx, "sid-2"))
	_, err = store.GetSession(ctx, "sid-2")
	assert.Error(t, err)
}

func TestSessionStore_HookErrors(t *testing.T) {
	origSet, origGet := setSessionValue, getSessionValue
	t.Cleanup(func() {
		setSessionValue = origSet
		getSessionValue = origGet
	})

	store, err := NewSessionStore(testSessionKey)
	require.NoError(t, err)

	setSessionValue = func(context.Context, string, interface{}, time.Duration) error {
		return errors.New("set failed")
	}
	assert.Error(t, store.CreateSession(context.Background(), "sid", &SessionData{}, time.Minute))

	getSessionValue = func(context.Context, string) (string, error) { return "zz", nil }
	_, err = store.GetSession(context.Background(), "sid")
	assert.Error(t, err)

	enc, err := store.encrypt([]byte("not-json"))
	require.NoError(t, err)
	getSessionValue = func(context.Context, string) (string, error) { return enc, nil }
	_, err = store.GetSession(context.Background(), "sid")
	assert.Error(t, err)
}
