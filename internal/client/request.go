package client

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	xproxy "golang.org/x/net/proxy"
	"vintedwatch/internal/proxy"
)

const defaultTimeout = 10 * time.Second

// Request describes one outbound call. Proxy is optional; a nil Proxy sends
// the request directly.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Proxy   *proxy.Entry
	Timeout time.Duration
}

// Response is the uniform envelope returned by Send. Network failures,
// timeouts and non-2xx statuses all land in the Success=false branch so
// callers have a single branching path.
type Response struct {
	Success    bool
	StatusCode int
	Header     http.Header
	Data       []byte
	Err        error
}

func failure(err error) Response {
	return Response{Success: false, Err: err}
}

// Send executes the request and folds every failure mode into the returned
// envelope. Each request carries a randomized user-agent and JSON defaults
// unless the caller overrides them.
func (c Client) Send(r Request) Response {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequest(r.Method, r.URL, body)
	if err != nil {
		return failure(errors.Wrapf(err, "error creating request to URL: %s", r.URL))
	}

	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for name, values := range r.Header {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	transport, err := proxyTransport(r.Proxy)
	if err != nil {
		return failure(err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout, Transport: transport}

	resp, err := httpClient.Do(req)
	if err != nil {
		return failure(errors.Wrapf(err, "error doing request to URL: %s", r.URL))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 2*1024*1024))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Err:        errors.Wrapf(err, "error reading response body from URL: %s, status: %s", r.URL, resp.Status),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Data:       data,
			Err:        errors.Errorf("request to URL: %s failed with status: %s", r.URL, resp.Status),
		}
	}

	return Response{
		Success:    true,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       data,
	}
}

// proxyTransport rewrites the transport to tunnel through the entry, using an
// HTTP CONNECT proxy or a SOCKS5 dialer depending on the entry's scheme.
func proxyTransport(e *proxy.Entry) (*http.Transport, error) {
	if e == nil {
		return nil, nil
	}
	if e.Scheme == proxy.SchemeSOCKS5 {
		var auth *xproxy.Auth
		if e.Username != "" {
			auth = &xproxy.Auth{User: e.Username, Password: e.Password}
		}
		dialer, err := xproxy.SOCKS5("tcp", net.JoinHostPort(e.Address, e.Port), auth, xproxy.Direct)
		if err != nil {
			return nil, errors.Wrapf(err, "error creating SOCKS5 dialer for proxy: %s:%s", e.Address, e.Port)
		}
		return &http.Transport{Dial: dialer.Dial}, nil
	}
	return &http.Transport{Proxy: http.ProxyURL(e.URL())}, nil
}
