package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vintedwatch/internal/cache"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/model"
)

type nopLogger struct{}

func (nopLogger) Debug(v ...any)                 {}
func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func newTestClient(t *testing.T) Client {
	t.Helper()
	return Client{
		DomainExtension: "fr",
		Cache:           newMemoryCache(t),
		Metrics:         metrics.NewAggregator(nopLogger{}),
		Logger:          nopLogger{},
	}
}

func newMemoryCache(t *testing.T) *cache.Memory {
	t.Helper()
	m := cache.NewMemory(time.Minute)
	t.Cleanup(m.Stop)
	return m
}

func TestCatalogItemID(t *testing.T) {
	assert.Equal(t, "3928461827", CatalogItem{ID: 3928461827}.ItemID())
}

func TestClassifyFailure(t *testing.T) {
	err, ok := classifyFailure(Response{StatusCode: http.StatusNotFound, Data: []byte("{}")})
	require.True(t, ok)
	assert.True(t, errors.Is(err, ErrNotFound))

	err, ok = classifyFailure(Response{StatusCode: http.StatusTooManyRequests})
	require.True(t, ok)
	assert.True(t, errors.Is(err, ErrRateLimited))

	_, ok = classifyFailure(Response{StatusCode: http.StatusInternalServerError})
	assert.False(t, ok)
}

func TestVintedItemNormalization(t *testing.T) {
	body := []byte(`{"item": {
		"id": 123,
		"title": "Wool coat",
		"description": "Warm winter coat",
		"price": "45.50",
		"currency": "EUR",
		"size": "M",
		"brand_title": "Acme",
		"url": "https://www.vinted.fr/items/123-wool-coat",
		"photos": [{"url": "https://images.vinted.net/1.jpg"}, {"url": "https://images.vinted.net/2.jpg"}],
		"user": {"id": 99, "login": "seller", "feedback_reputation": 4.5}
	}}`)

	var itemResp vintedItemResponse
	require.NoError(t, json.Unmarshal(body, &itemResp))
	i := itemResp.Item.toItem()

	assert.Equal(t, "123", i.ItemID)
	assert.Equal(t, "Wool coat", i.Title)
	assert.Equal(t, 45.5, i.Price)
	assert.Equal(t, "EUR", i.Currency)
	assert.Equal(t, "M", i.Size)
	assert.Equal(t, "Acme", i.Brand)
	assert.Equal(t, "https://images.vinted.net/1.jpg", i.ImageURL)
	assert.Equal(t, model.Seller{SellerID: "99", Username: "seller", Rating: 4.5}, i.Seller)
}

func TestVintedItemNormalizationNumericPrice(t *testing.T) {
	var itemResp vintedItemResponse
	require.NoError(t, json.Unmarshal([]byte(`{"item": {"id": 1, "price": 12.99}}`), &itemResp))
	assert.Equal(t, 12.99, itemResp.Item.toItem().Price)
}

// catalogCacheKey reproduces the key FetchCatalogItems derives from a watch
// URL: the watch's own query parameters with pagination and ordering pinned,
// rewritten onto the catalog API endpoint.
func catalogCacheKey(t *testing.T, c Client, queryURL string) string {
	t.Helper()
	parsedURL, err := url.Parse(queryURL)
	require.NoError(t, err)
	params := parsedURL.Query()
	params.Set("per_page", catalogPerPage)
	params.Set("order", catalogOrder)
	return "catalog:" + c.baseURL() + "/api/v2/catalog/items?" + params.Encode()
}

func TestFetchCatalogItemsCacheHit(t *testing.T) {
	c := newTestClient(t)
	queryURL := "https://www.vinted.fr/catalog?search_text=jacket&order=oldest"

	cached := []CatalogItem{
		{ID: 2, Title: "Blue jacket", User: CatalogUser{ID: 9, Login: "seller", FeedbackReputation: 4.5}},
		{ID: 1, Title: "Red jacket"},
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	c.Cache.Set(catalogCacheKey(t, c, queryURL), data, time.Minute)

	items, err := c.FetchCatalogItems("session=abc", queryURL, true)
	require.NoError(t, err)
	assert.Equal(t, cached, items)

	snap := c.Metrics.Snapshot()
	require.Contains(t, snap.Endpoints, "catalog_items")
	assert.EqualValues(t, 1, snap.Endpoints["catalog_items"].Success)
}

func TestFetchItemCacheHit(t *testing.T) {
	c := newTestClient(t)

	cached := model.Item{ItemID: "123", Title: "Wool coat", Price: 45.5, Currency: "EUR"}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	c.Cache.Set("item:123", data, time.Minute)

	item, err := c.FetchItem("session=abc", "123", true)
	require.NoError(t, err)
	assert.Equal(t, cached, item)

	snap := c.Metrics.Snapshot()
	require.Contains(t, snap.Endpoints, "item_details")
	assert.EqualValues(t, 1, snap.Endpoints["item_details"].Success)
}

func TestFetchCatalogItemsInvalidURL(t *testing.T) {
	c := newTestClient(t)

	_, err := c.FetchCatalogItems("session=abc", "://not-a-url", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemsUnavailable))

	snap := c.Metrics.Snapshot()
	assert.EqualValues(t, 1, snap.APICalls.Failed)
	require.Contains(t, snap.ErrorsByKind, "APIError")
}
