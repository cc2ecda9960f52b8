package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	"github.com/buger/jsonparser"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 15 * time.Second

	// responses from /messages and /media are small JSON documents
	maxResponseBytes = 1 << 20
)

type Config struct {
	BaseURL       string
	Version       string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the WhatsApp Cloud API on behalf of one phone number.
type Client struct {
	baseURL       string
	version       string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		version:       strings.Trim(cfg.Version, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		httpClient:    httpClient,
	}
}

// endpoint builds {base}/{version}/{phone_number_id}/{path}.
func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.version, c.phoneNumberID, path)
}

// Send posts msg to /messages and returns the wamid of the accepted message.
func (c *Client) Send(ctx context.Context, msg domainMessage.OutboundMessage) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s message: %w", msg.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("messages"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"to":   msg.To,
			"type": msg.Kind,
		}).Warn("[GRAPH] send failed")
		return "", err
	}

	id, _ := jsonparser.GetString(data, "messages", "[0]", "id")
	logrus.WithFields(logrus.Fields{
		"to":         msg.To,
		"type":       msg.Kind,
		"message_id": id,
	}).Debug("[GRAPH] message accepted")
	return id, nil
}

// do authenticates and executes a Graph request, returning the response body
// or a *GraphAPIError for non-2xx answers.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read graph response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseGraphError(resp.StatusCode, data)
	}
	return data, nil
}
