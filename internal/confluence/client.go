package confluence

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"confattach/pkg/logger"
	"confattach/pkg/version"
)

// Client talks to the Confluence REST API using basic auth (username + API token).
// A Client holds no per-call state and may be shared between goroutines.
type Client struct {
	baseURL  string
	username string
	apiToken string
	client   *http.Client
	logger   *logger.Logger
}

type Page struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space,omitempty"`
	Version struct {
		Number int `json:"number"`
	} `json:"version,omitempty"`
}

func New(baseURL, username, apiToken string) *Client {
	return NewClient(baseURL, username, apiToken, nil)
}

func NewClient(baseURL, username, apiToken string, log *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		apiToken: apiToken,
		client:   &http.Client{},
		logger:   log,
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests and proxies.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// DoAuthenticatedRequest adds credentials and the standard headers, then executes req.
// The caller owns the response body.
func (c *Client) DoAuthenticatedRequest(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("%s %s", req.Method, req.URL.String())

	return c.client.Do(req)
}

// doJSON executes req and decodes a 2xx JSON body into out.
// Non-2xx responses become *APIError.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.DoAuthenticatedRequest(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w: %w", ErrMalformedResponse, err)
	}

	return nil
}

func (c *Client) contentURL(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/rest/api/content/" + strings.Join(escaped, "/")
}

func (c *Client) GetPage(pageID string) (*Page, error) {
	req, err := http.NewRequest(http.MethodGet, c.contentURL(pageID)+"?expand=version", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result Page
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// FindPageByTitle returns nil, nil when no page in the space carries the title.
func (c *Client) FindPageByTitle(spaceKey, title string) (*Page, error) {
	params := url.Values{}
	params.Add("spaceKey", spaceKey)
	params.Add("title", title)
	params.Add("expand", "version")

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/rest/api/content?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result struct {
		Results []Page `json:"results"`
	}
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, nil
	}

	return &result.Results[0], nil
}
