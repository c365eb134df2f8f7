package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrNoProxiesAvailable = errors.New("no proxies available")

const SchemeSOCKS5 = "socks5"

// Entry is one egress proxy: address, port and credential pair. Scheme is
// "http" unless the source marked the entry as SOCKS5.
type Entry struct {
	Scheme   string
	Address  string
	Port     string
	Username string
	Password string
}

func (e Entry) URL() *url.URL {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "http"
	}
	u := &url.URL{
		Scheme: scheme,
		Host:   e.Address + ":" + e.Port,
	}
	if e.Username != "" {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u
}

// Pool hands out entries in round-robin order. The entry list is replaced
// wholesale by the Init functions and never mutated in between, so Next only
// has to serialize the cursor.
type Pool struct {
	mu      sync.Mutex
	entries []Entry
	cursor  int
}

type providerResponse struct {
	Results []providerProxy `json:"results"`
}

type providerProxy struct {
	ProxyAddress string      `json:"proxy_address"`
	Port         json.Number `json:"port"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
}

// InitFromProvider fills the pool from a remote proxy list endpoint
// authenticated with a bearer token.
func (p *Pool) InitFromProvider(httpClient *http.Client, providerURL string, apiKey string) error {
	req, err := http.NewRequest(http.MethodGet, providerURL, nil)
	if err != nil {
		return errors.Wrapf(err, "error creating request to proxy provider: %s", providerURL)
	}
	req.Header.Set("Authorization", "Token "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error fetching proxies from provider: %s", providerURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 1024*1024))
	if err != nil {
		return errors.Wrapf(err, "error reading proxy provider response, status: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("error getting proxies from provider, status: %s", resp.Status)
	}

	var providerResp providerResponse
	if err = json.Unmarshal(body, &providerResp); err != nil {
		return errors.Wrapf(err, "error unmarshalling proxy provider response, status: %s", resp.Status)
	}

	es := make([]Entry, 0, len(providerResp.Results))
	for _, r := range providerResp.Results {
		if r.ProxyAddress == "" || r.Port.String() == "" {
			continue
		}
		es = append(es, Entry{
			Address:  r.ProxyAddress,
			Port:     r.Port.String(),
			Username: r.Username,
			Password: r.Password,
		})
	}
	if len(es) == 0 {
		return ErrNoProxiesAvailable
	}

	p.replace(es)
	return nil
}

// InitFromFile fills the pool from a line-oriented file of
// address:port:username:password records. Lines prefixed with socks5:// are
// treated as SOCKS5 entries.
func (p *Pool) InitFromFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error reading proxies file: %s", path)
	}

	var es []Entry
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		scheme := ""
		if strings.HasPrefix(line, SchemeSOCKS5+"://") {
			scheme = SchemeSOCKS5
			line = strings.TrimPrefix(line, SchemeSOCKS5+"://")
		}
		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			return errors.Errorf("invalid proxy record: %s", line)
		}
		e := Entry{Scheme: scheme, Address: parts[0], Port: parts[1]}
		if len(parts) >= 4 {
			e.Username = parts[2]
			e.Password = parts[3]
		}
		es = append(es, e)
	}
	if len(es) == 0 {
		return ErrNoProxiesAvailable
	}

	p.replace(es)
	return nil
}

func (p *Pool) replace(es []Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = es
	p.cursor = 0
}

// Next returns the entry at the cursor and advances it, wrapping around
// indefinitely. ok is false when the pool is empty, which callers interpret
// as "send directly".
func (p *Pool) Next() (e Entry, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return Entry{}, false
	}
	e = p.entries[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.entries)
	return e, true
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
