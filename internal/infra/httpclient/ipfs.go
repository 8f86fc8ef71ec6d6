package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
)

// PinClient mirrors images onto IPFS through the nft.storage upload API.
type PinClient struct {
	http     *http.Client
	endpoint string
	token    string
}

func NewPinClient(cfg *config.Config) *PinClient {
	return &PinClient{
		http:     &http.Client{Timeout: 60 * time.Second},
		endpoint: strings.TrimRight(cfg.IPFS.Endpoint, "/"),
		token:    cfg.IPFS.Token,
	}
}

type uploadResponse struct {
	Value struct {
		CID string `json:"cid"`
	} `json:"value"`
}

// PinFromURL downloads the image and uploads it to the pinning service,
// returning the content CID.
func (c *PinClient) PinFromURL(ctx context.Context, imageURL string) (string, error) {
	blob, err := c.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", bytes.NewReader(blob))
	if err != nil {
		return "", &apperr.UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mimetype.Detect(blob).String())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &apperr.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperr.UpstreamError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apperr.UpstreamError{Err: fmt.Errorf("upload status %d", resp.StatusCode)}
	}

	out := uploadResponse{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", &apperr.UpstreamError{Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if out.Value.CID == "" {
		return "", &apperr.UpstreamError{Err: fmt.Errorf("upload response carried no cid")}
	}
	return out.Value.CID, nil
}

func (c *PinClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("download status %d", resp.StatusCode)}
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}
	return blob, nil
}
