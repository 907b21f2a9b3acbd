package anchor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"medverify/backend/internal/domain"
)

// HTTPClient resolves anchors through the network's HTTP resolver API.
type HTTPClient struct {
	client *resty.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &HTTPClient{client: client}
}

func (c *HTTPClient) Exists(ctx context.Context, identifier string) bool {
	resp, err := c.client.R().
		SetContext(ctx).
		Head("/anchors/" + url.PathEscape(identifier))
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

func (c *HTTPClient) ResolveBatch(ctx context.Context, identifier string) (*domain.BatchData, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/batches/" + url.PathEscape(identifier))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		var batch domain.BatchData
		if err := json.Unmarshal(resp.Body(), &batch); err != nil {
			return nil, err
		}
		return &batch, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("batch resolve status: %d", resp.StatusCode())
	}
}

func (c *HTTPClient) ResolveProduct(ctx context.Context, identifier string) (*domain.Product, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/products/" + url.PathEscape(identifier))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		var product domain.Product
		if err := json.Unmarshal(resp.Body(), &product); err != nil {
			return nil, err
		}
		return &product, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("product resolve status: %d", resp.StatusCode())
	}
}
