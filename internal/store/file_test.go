package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	fs := NewFileTokenStore(path)

	tok, err := fs.Read()
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.Error(t, fs.Write(&oauth2.Token{}))
	require.NoError(t, fs.Write(&oauth2.Token{AccessToken: "abc", RefreshToken: "r"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = fs.Read()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "abc", tok.AccessToken)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	tok, err = fs.Read()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestFileTokenStore_TokenSource(t *testing.T) {
	fs := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	cfg := &oauth2.Config{}

	src, err := fs.TokenSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, src)

	require.NoError(t, fs.Write(&oauth2.Token{AccessToken: "live", Expiry: time.Now().Add(time.Hour)}))
	src, err = fs.TokenSource(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, src)

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "live", tok.AccessToken)
}
