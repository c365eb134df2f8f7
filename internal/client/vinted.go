package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"vintedwatch/internal/misc"
	"vintedwatch/internal/model"
)

var (
	ErrCredentialMissing   = errors.New("no session credential in response")
	ErrUpstreamUnavailable = errors.New("Vinted unavailable")
	ErrItemsUnavailable    = errors.New("Vinted catalog items unavailable")
	ErrItemUnavailable     = errors.New("Vinted item unavailable")
	ErrNotFound            = errors.New("Vinted resource not found")
	ErrRateLimited         = errors.New("Vinted rate limit exceeded")
)

const (
	catalogCacheTTL = 5 * time.Minute
	itemCacheTTL    = 30 * time.Minute

	catalogPerPage = "96"
	catalogOrder   = "newest_first"
)

type CatalogItem struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	User        CatalogUser `json:"user"`
}

type CatalogUser struct {
	ID                 int64   `json:"id"`
	Login              string  `json:"login"`
	FeedbackReputation float64 `json:"feedback_reputation"`
}

// ItemID returns the upstream identifier in the string form used by the watch
// cursor and the item ledger.
func (ci CatalogItem) ItemID() string {
	return strconv.FormatInt(ci.ID, 10)
}

type catalogResponse struct {
	Items []CatalogItem `json:"items"`
}

type vintedItemResponse struct {
	Item vintedItem `json:"item"`
}

type vintedItem struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Currency    string      `json:"currency"`
	Size        string      `json:"size"`
	BrandTitle  string      `json:"brand_title"`
	URL         string      `json:"url"`
	Photos      []struct {
		URL string `json:"url"`
	} `json:"photos"`
	User struct {
		ID                 int64   `json:"id"`
		Login              string  `json:"login"`
		FeedbackReputation float64 `json:"feedback_reputation"`
	} `json:"user"`
}

func (vi vintedItem) toItem() model.Item {
	price, _ := vi.Price.Float64()
	var imageURL string
	if len(vi.Photos) > 0 {
		imageURL = vi.Photos[0].URL
	}
	return model.Item{
		ItemID:      strconv.FormatInt(vi.ID, 10),
		Title:       vi.Title,
		Description: vi.Description,
		Price:       price,
		Currency:    vi.Currency,
		Size:        vi.Size,
		Brand:       vi.BrandTitle,
		URL:         vi.URL,
		ImageURL:    imageURL,
		Seller: model.Seller{
			SellerID: strconv.FormatInt(vi.User.ID, 10),
			Username: vi.User.Login,
			Rating:   vi.User.FeedbackReputation,
		},
	}
}

func (c Client) baseURL() string {
	return "https://www.vinted." + c.DomainExtension
}

// instrument runs fn through the shared execution boundary: latency is
// measured, the outcome is reported to the aggregator, and the error is
// classified by kind before being passed back up. NotFound and RateLimit
// failures always reach the caller; retrying is the orchestrator's decision.
func (c Client) instrument(endpoint string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Metrics.RecordAPICall(endpoint, err == nil, time.Since(start))
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound):
		c.Logger.Warnf("%s: Not found, err: %v", endpoint, err)
		c.Metrics.RecordError("NotFound", err.Error())
	case errors.Is(err, ErrRateLimited):
		c.Logger.Warnf("%s: Rate limited, err: %v", endpoint, err)
		c.Metrics.RecordError("RateLimit", err.Error())
	default:
		c.Logger.Errorf("%s: Request failed, err: %v", endpoint, err)
		c.Metrics.RecordError("APIError", err.Error())
	}
	return err
}

// classifyFailure maps upstream statuses that the orchestrator must be able to
// branch on to their sentinel errors. ok is false for every other failure.
func classifyFailure(resp Response) (error, bool) {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "status: %d, body: %s", resp.StatusCode, misc.BytesLimit(resp.Data, 500)), true
	case http.StatusTooManyRequests:
		return errors.Wrapf(ErrRateLimited, "status: %d", resp.StatusCode), true
	}
	return nil, false
}

// FetchSession performs an unauthenticated request to the marketplace root and
// extracts the session cookies from the response headers.
func (c Client) FetchSession() (string, error) {
	var cred string
	err := c.instrument("fetch_session", func() error {
		resp := c.Send(Request{
			Method: http.MethodGet,
			URL:    c.baseURL() + "/",
			Proxy:  c.nextProxy(),
		})
		if !resp.Success {
			if err, ok := classifyFailure(resp); ok {
				return err
			}
			return errors.Wrapf(ErrUpstreamUnavailable, "error fetching session cookie, err: %v", resp.Err)
		}

		cookies := resp.Header.Values("Set-Cookie")
		if len(cookies) == 0 {
			return errors.Wrap(ErrCredentialMissing, "no Set-Cookie header on session response")
		}
		pairs := make([]string, 0, len(cookies))
		for _, sc := range cookies {
			pair, _, _ := strings.Cut(sc, ";")
			pairs = append(pairs, strings.TrimSpace(pair))
		}
		cred = strings.Join(pairs, "; ")
		return nil
	})
	return cred, err
}

// FetchCatalogItems rewrites the watch's query parameters onto the catalog
// search endpoint and returns the listing summaries, newest first. Results are
// cached under the fully-resolved URL when useCache is true.
func (c Client) FetchCatalogItems(credential string, queryURL string, useCache bool) ([]CatalogItem, error) {
	var items []CatalogItem
	err := c.instrument("catalog_items", func() error {
		parsedURL, err := url.Parse(queryURL)
		if err != nil {
			return errors.Wrapf(ErrItemsUnavailable, "error parsing watch query URL: %s, err: %v", queryURL, err)
		}
		params := parsedURL.Query()
		params.Set("per_page", catalogPerPage)
		params.Set("order", catalogOrder)
		apiURL := c.baseURL() + "/api/v2/catalog/items?" + params.Encode()

		cacheKey := "catalog:" + apiURL
		if useCache {
			if cached, ok := c.Cache.Get(cacheKey); ok {
				c.Logger.Debugf("FetchCatalogItems: Cache hit, key: %s", cacheKey)
				if err = json.Unmarshal(cached, &items); err == nil {
					return nil
				}
				c.Logger.Errorf("FetchCatalogItems: Error unmarshalling cached items, key: %s, err: %v", cacheKey, err)
			}
		}

		resp := c.Send(Request{
			Method: http.MethodGet,
			URL:    apiURL,
			Header: http.Header{"Cookie": []string{credential}},
			Proxy:  c.nextProxy(),
		})
		if !resp.Success {
			if err, ok := classifyFailure(resp); ok {
				return err
			}
			return errors.Wrapf(ErrItemsUnavailable, "error fetching catalog items from URL: %s, err: %v", apiURL, resp.Err)
		}

		var catalogResp catalogResponse
		if err = json.Unmarshal(resp.Data, &catalogResp); err != nil {
			return errors.Wrapf(ErrItemsUnavailable,
				"error unmarshalling catalog response, body: %s, err: %v", misc.BytesLimit(resp.Data, 500), err)
		}
		items = catalogResp.Items

		if useCache {
			if cached, err := json.Marshal(items); err == nil {
				c.Cache.Set(cacheKey, cached, catalogCacheTTL)
			}
		}
		return nil
	})
	return items, err
}

// FetchItem fetches the full detail for one listing and normalizes it into the
// canonical Item shape. Results are cached under the item identifier when
// useCache is true.
func (c Client) FetchItem(credential string, itemID string, useCache bool) (model.Item, error) {
	var item model.Item
	err := c.instrument("item_details", func() error {
		cacheKey := "item:" + itemID
		if useCache {
			if cached, ok := c.Cache.Get(cacheKey); ok {
				c.Logger.Debugf("FetchItem: Cache hit, key: %s", cacheKey)
				if err := json.Unmarshal(cached, &item); err == nil {
					return nil
				}
				c.Logger.Errorf("FetchItem: Error unmarshalling cached item, key: %s", cacheKey)
			}
		}

		apiURL := c.baseURL() + "/api/v2/items/" + itemID
		resp := c.Send(Request{
			Method: http.MethodGet,
			URL:    apiURL,
			Header: http.Header{"Cookie": []string{credential}},
			Proxy:  c.nextProxy(),
		})
		if !resp.Success {
			if err, ok := classifyFailure(resp); ok {
				return err
			}
			return errors.Wrapf(ErrItemUnavailable, "error fetching item: %s, err: %v", itemID, resp.Err)
		}

		var itemResp vintedItemResponse
		if err := json.Unmarshal(resp.Data, &itemResp); err != nil {
			return errors.Wrapf(ErrItemUnavailable,
				"error unmarshalling item response for item: %s, body: %s, err: %v",
				itemID, misc.BytesLimit(resp.Data, 500), err)
		}
		item = itemResp.Item.toItem()

		if useCache {
			if cached, err := json.Marshal(item); err == nil {
				c.Cache.Set(cacheKey, cached, itemCacheTTL)
			}
		}
		return nil
	})
	return item, err
}
