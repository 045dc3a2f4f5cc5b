package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerGenerateAndParse(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "ADMISSIONS/sub-1/passport")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	docID, key, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "doc-1", docID)
	require.Equal(t, "ADMISSIONS/sub-1/passport", key)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("doc-1", "ADMISSIONS/sub-1/passport")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestDownloadSignerTamperedToken(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "ADMISSIONS/sub-1/passport")
	require.NoError(t, err)

	_, _, _, err = signer.Parse("doc-2" + token[len("doc-1"):])
	require.Error(t, err)
}
