// Package brevo provides contacts.Directory, contacts.Provisioner and
// mailer.Mailer implementations backed by the Brevo REST API (v3).
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"waitlist/pkg/contacts"
	"waitlist/pkg/domain"
	"waitlist/pkg/mailer"
	"waitlist/pkg/metrics"
	"waitlist/pkg/serrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Brevo API endpoint.
const DefaultBaseURL = "https://api.brevo.com/v3"

const tracerName = "waitlist/pkg/brevo"

// Client talks to the Brevo REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client     // httpClient performs HTTP requests to Brevo
	apiKey     string           // apiKey is sent in the api-key header
	baseURL    string           // baseURL is the API root without trailing slash
	metrics    *metrics.Metrics // metrics records call latency
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a sandbox or a test server.
// An empty baseURL keeps DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithMetrics records the latency of every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// apiError is the error payload Brevo returns on non-2xx responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// kindForStatus maps an HTTP status returned by Brevo to a semantic error kind.
func kindForStatus(status int) serrors.Kind {
	switch {
	case status == http.StatusNotFound:
		return serrors.ErrNotFound
	case status == http.StatusBadRequest:
		return serrors.ErrBadRequest
	case status == http.StatusUnauthorized:
		return serrors.ErrUnauthorized
	case status == http.StatusForbidden:
		return serrors.ErrForbidden
	case status == http.StatusTooManyRequests:
		return serrors.ErrRateLimited
	case status >= 500:
		return serrors.ErrUnavailable
	default:
		return serrors.ErrInternal
	}
}

// ParseError converts a non-2xx Brevo response into a semantic error. The
// provider message is kept so callers can inspect it.
func ParseError(status int, body []byte) error {
	var ae apiError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &ae); err == nil && ae.Message != "" {
		msg = ae.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	return serrors.With(kindForStatus(status), "brevo: %s", msg)
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil. Every call is wrapped in a span and its latency is recorded.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "brevo."+op, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RemoteCall(ctx, op, time.Since(start).Seconds(), err != nil)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ParseError(resp.StatusCode, b)
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

// Contact fetches a contact by email. A missing contact yields ErrNotFound.
func (c *Client) Contact(ctx context.Context, email string) (*domain.Subscriber, error) {
	// https://developers.brevo.com/reference/getcontactinfo-1
	var res struct {
		Email   string          `json:"email"`
		ListIDs []domain.ListID `json:"listIds"`
	}
	if err := c.do(ctx, "get_contact", http.MethodGet, "/contacts/"+url.PathEscape(email), nil, &res); err != nil {
		return nil, err
	}

	return &domain.Subscriber{Email: res.Email, ListIDs: res.ListIDs}, nil
}

// UpsertContact creates the contact with the given lists, updating it when it
// already exists.
func (c *Client) UpsertContact(ctx context.Context, email string, listIDs []domain.ListID) error {
	// https://developers.brevo.com/reference/createcontact
	type createContactReq struct {
		Email         string          `json:"email"`
		ListIDs       []domain.ListID `json:"listIds"`
		UpdateEnabled bool            `json:"updateEnabled"`
	}

	return c.do(ctx, "create_contact", http.MethodPost, "/contacts", createContactReq{
		Email:         email,
		ListIDs:       listIDs,
		UpdateEnabled: true,
	}, nil)
}

// List returns details of a contact list.
func (c *Client) List(ctx context.Context, id domain.ListID) (*contacts.List, error) {
	// https://developers.brevo.com/reference/getlist-1
	var res struct {
		ID               domain.ListID `json:"id"`
		Name             string        `json:"name"`
		TotalSubscribers int64         `json:"totalSubscribers"`
	}
	path := "/contacts/lists/" + strconv.FormatInt(int64(id), 10)
	if err := c.do(ctx, "get_list", http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}

	return &contacts.List{ID: res.ID, Name: res.Name, TotalSubscribers: res.TotalSubscribers}, nil
}

// Folders returns a page of contact folders.
func (c *Client) Folders(ctx context.Context, limit, offset int) ([]contacts.Folder, error) {
	var res struct {
		Folders []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"folders"`
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if err := c.do(ctx, "get_folders", http.MethodGet, "/contacts/folders?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}

	out := make([]contacts.Folder, 0, len(res.Folders))
	for _, f := range res.Folders {
		out = append(out, contacts.Folder{ID: f.ID, Name: f.Name})
	}

	return out, nil
}

// CreateList creates a new contact list in the given folder.
func (c *Client) CreateList(ctx context.Context, name string, folderID int64) (domain.ListID, error) {
	type createListReq struct {
		Name     string `json:"name"`
		FolderID int64  `json:"folderId"`
	}
	var res struct {
		ID domain.ListID `json:"id"`
	}
	if err := c.do(ctx, "create_list", http.MethodPost, "/contacts/lists",
		createListReq{Name: name, FolderID: folderID}, &res); err != nil {
		return 0, err
	}

	return res.ID, nil
}

// Send dispatches a transactional email and returns the provider message ID.
func (c *Client) Send(ctx context.Context, msg mailer.Message) (string, error) {
	// https://developers.brevo.com/reference/sendtransacemail
	type address struct {
		Email string `json:"email"`
		Name  string `json:"name,omitempty"`
	}
	type sendReq struct {
		Sender      address   `json:"sender"`
		To          []address `json:"to"`
		Subject     string    `json:"subject"`
		HTMLContent string    `json:"htmlContent,omitempty"`
		TextContent string    `json:"textContent,omitempty"`
		Tags        []string  `json:"tags,omitempty"`
	}

	req := sendReq{
		Sender:      address(msg.Sender),
		To:          make([]address, 0, len(msg.To)),
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
		Tags:        msg.Tags,
	}
	for _, to := range msg.To {
		req.To = append(req.To, address(to))
	}

	var res struct {
		MessageID string `json:"messageId"`
	}
	if err := c.do(ctx, "send_email", http.MethodPost, "/smtp/email", req, &res); err != nil {
		return "", err
	}

	return res.MessageID, nil
}

// Ensure Client conforms to the interfaces it serves at compile time.
var (
	_ contacts.Directory   = (*Client)(nil)
	_ contacts.Provisioner = (*Client)(nil)
	_ mailer.Mailer        = (*Client)(nil)
)

// New constructs a Client that uses the provided http.Client and API key.
func New(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}
