// Package practicum implements the homework status API client.
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultTimeout  = 30 * time.Second

	paramFromDate = "from_date"
)

// ClientConfig contains configuration for the homework API client.
type ClientConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client performs one GET per Fetch. It never retries: the poll loop does.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(cfg ClientConfig, logger *logrus.Entry) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

var _ homework.Source = (*Client)(nil)

// Fetch requests statuses changed since cursor and returns the decoded body.
func (c *Client) Fetch(ctx context.Context, cursor int64) (any, error) {
	params := url.Values{}
	params.Set(paramFromDate, strconv.FormatInt(cursor, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"endpoint":  c.endpoint,
		"from_date": cursor,
	}).Debug("Requesting homework statuses")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", c.endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, homework.NewResponseCodeError(c.endpoint, req.Header, params, resp.StatusCode, string(body))
	}

	return decode(body)
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode response"), homework.ErrDecode)
	}
	if dec.More() {
		return nil, errors.Mark(errors.New("decode response: trailing data after JSON value"), homework.ErrDecode)
	}
	return v, nil
}
