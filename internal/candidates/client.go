package candidates

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"context"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/model"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
	defaultAgent    = "applypilot (github.com/jobwright/applypilot)"
	// Max items the source returns per page.
	perPage = "100"
)

// Client is an HTTP client for the candidate source API.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

type itemResponse struct {
	Items   []map[string]any
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

// New creates a candidate source client for the given API base URL.
func New(apiURL, token string, logger *zap.Logger) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: defaultAgent,
	}
}

// ScanCandidates fetches all candidate pages for the user and decodes
// them into typed candidates.
func (c *Client) ScanCandidates(ctx context.Context, userID string) ([]*model.JobCandidate, error) {
	endpoint := fmt.Sprintf("%s/users/%s/candidates", c.APIURL, url.PathEscape(userID))

	q := url.Values{}
	q.Add("per_page", perPage)

	items, err := c.getItems(ctx, endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("scan candidates: %w", err)
	}

	candidates := make([]*model.JobCandidate, 0, len(items))
	now := time.Now()
	for _, item := range items {
		var candidate model.JobCandidate
		if err := mapstructure.Decode(item, &candidate); err != nil {
			return nil, fmt.Errorf("decode candidate: %w", err)
		}
		candidate.DiscoveredAt = now
		if candidate.Scope == "" {
			candidate.Scope = model.ScopeUser
		}
		candidates = append(candidates, &candidate)
	}

	return candidates, nil
}

// getItems makes a GET request and returns items from all pages.
func (c *Client) getItems(ctx context.Context, endpoint string, q url.Values) ([]map[string]any, error) {
	var items []map[string]any

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.URL.RawQuery = q.Encode()

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}

	response, err := c.parseItemResponse(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from candidate source",
		zap.Int("pages", response.Pages),
		zap.Int("max items per page", response.PerPage),
	)

	items = append(items, response.Items...)

	for response.Page < (response.Pages - 1) {
		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		resp, err = c.request(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}

		response, err = c.parseItemResponse(resp)
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *Client) parseItemResponse(resp *http.Response) (*itemResponse, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.ReadCloser
	var err error
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		body, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer body.Close()
	default:
		body = resp.Body
		defer body.Close()
	}

	var response *itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	return response, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// addPage adds page parameter to request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	return req
}
