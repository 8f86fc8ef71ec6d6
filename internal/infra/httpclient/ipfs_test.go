package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestPinFromURL(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer imgSrv.Close()

	pinSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"value": {"cid": "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"}}`))
	}))
	defer pinSrv.Close()

	cfg := &config.Config{}
	cfg.IPFS.Endpoint = pinSrv.URL
	cfg.IPFS.Token = "secret"

	cid, err := NewPinClient(cfg).PinFromURL(context.Background(), imgSrv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", cid)
}

func TestPinFromURLDownloadFails(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer imgSrv.Close()

	cfg := &config.Config{}
	cfg.IPFS.Endpoint = "http://127.0.0.1:0"

	_, err := NewPinClient(cfg).PinFromURL(context.Background(), imgSrv.URL+"/missing.png")

	var up *apperr.UpstreamError
	assert.ErrorAs(t, err, &up)
}

func TestPinFromURLNoCID(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer imgSrv.Close()

	pinSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false}`))
	}))
	defer pinSrv.Close()

	cfg := &config.Config{}
	cfg.IPFS.Endpoint = pinSrv.URL

	_, err := NewPinClient(cfg).PinFromURL(context.Background(), imgSrv.URL)

	var up *apperr.UpstreamError
	assert.ErrorAs(t, err, &up)
}
