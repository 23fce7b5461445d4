package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignedURLIsOffline(t *testing.T) {
	s, err := NewObjectStore(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "dashboard-exports",
		URLTTL:    10 * time.Minute,
	})
	require.NoError(t, err)

	raw, err := s.PresignedURL(context.Background(), "off-1/complaints-20240301T090000Z-abcd1234.csv")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/dashboard-exports/off-1/complaints-20240301T090000Z-abcd1234.csv", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("response-content-disposition"), "complaints-20240301T090000Z-abcd1234.csv")
}

func TestNewObjectStoreDefaults(t *testing.T) {
	s, err := NewObjectStore(Config{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, s.urlTTL)

	_, err = NewObjectStore(Config{Endpoint: "http://bad host"})
	assert.Error(t, err)
}
