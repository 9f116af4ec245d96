package brevo_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"waitlist/pkg/brevo"
	"waitlist/pkg/domain"
	"waitlist/pkg/mailer"
	"waitlist/pkg/metrics"
	"waitlist/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *brevo.Client {
	return brevo.New(&http.Client{Transport: fn}, "test-key", brevo.WithMetrics(metrics.Noop()))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClient_Contact_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "api.brevo.com", r.URL.Host)
		require.Equal(t, "/v3/contacts/test@example.com", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("Api-Key"))

		return jsonResponse(http.StatusOK, `{"email":"test@example.com","listIds":[3,7]}`), nil
	})

	sub, err := c.Contact(context.Background(), "test@example.com")
	require.NoError(t, err)
	require.Equal(t, "test@example.com", sub.Email)
	require.Equal(t, []domain.ListID{3, 7}, sub.ListIDs)
	require.True(t, sub.OnList(7))
	require.False(t, sub.OnList(8))
}

func TestClient_Contact_notFound(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"code":"document_not_found","message":"Contact does not exist"}`), nil
	})

	sub, err := c.Contact(context.Background(), "nobody@example.com")
	require.Error(t, err)
	require.Nil(t, sub)
	require.ErrorIs(t, err, serrors.ErrNotFound)
	require.Contains(t, err.Error(), "Contact does not exist")
}

func TestClient_UpsertContact_sendsListAndUpdateEnabled(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v3/contacts", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "new@example.com", body["email"])
		require.Equal(t, []any{float64(42)}, body["listIds"])
		require.Equal(t, true, body["updateEnabled"])

		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
	})

	require.NoError(t, c.UpsertContact(context.Background(), "new@example.com", []domain.ListID{42}))
}

func TestClient_UpsertContact_serverError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream bad"), nil
	})

	err := c.UpsertContact(context.Background(), "new@example.com", []domain.ListID{42})
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "upstream bad")
}

func TestClient_UpsertContact_transportError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	err := c.UpsertContact(context.Background(), "new@example.com", []domain.ListID{42})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestClient_List_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/v3/contacts/lists/42", r.URL.Path)

		return jsonResponse(http.StatusOK, `{"id":42,"name":"Warteliste","totalSubscribers":1234}`), nil
	})

	list, err := c.List(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, domain.ListID(42), list.ID)
	require.Equal(t, "Warteliste", list.Name)
	require.EqualValues(t, 1234, list.TotalSubscribers)
}

func TestClient_List_rateLimited(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"code":"too_many_requests","message":"slow down"}`), nil
	})

	_, err := c.List(context.Background(), 42)
	require.ErrorIs(t, err, serrors.ErrRateLimited)
}

func TestClient_Folders(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/v3/contacts/folders", r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		require.Equal(t, "0", r.URL.Query().Get("offset"))

		return jsonResponse(http.StatusOK, `{"folders":[{"id":5,"name":"Your first folder"}],"count":1}`), nil
	})

	folders, err := c.Folders(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	require.EqualValues(t, 5, folders[0].ID)
}

func TestClient_CreateList(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v3/contacts/lists", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "VergabeMeister Warteliste", body["name"])
		require.Equal(t, float64(5), body["folderId"])

		return jsonResponse(http.StatusCreated, `{"id":17}`), nil
	})

	id, err := c.CreateList(context.Background(), "VergabeMeister Warteliste", 5)
	require.NoError(t, err)
	require.Equal(t, domain.ListID(17), id)
}

func TestClient_Send(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/v3/smtp/email", r.URL.Path)

		var body struct {
			Sender struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"sender"`
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
			Subject     string   `json:"subject"`
			HTMLContent string   `json:"htmlContent"`
			TextContent string   `json:"textContent"`
			Tags        []string `json:"tags"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "noreply@example.com", body.Sender.Email)
		require.Equal(t, "VergabeMeister", body.Sender.Name)
		require.Len(t, body.To, 1)
		require.Equal(t, "user@example.com", body.To[0].Email)
		require.Equal(t, "Hallo", body.Subject)
		require.Equal(t, "<p>Hi</p>", body.HTMLContent)
		require.Equal(t, "Hi", body.TextContent)
		require.Equal(t, []string{"waitlist-confirmation"}, body.Tags)

		return jsonResponse(http.StatusCreated, `{"messageId":"<abc@smtp-relay>"}`), nil
	})

	id, err := c.Send(context.Background(), mailer.Message{
		Sender:  mailer.Address{Email: "noreply@example.com", Name: "VergabeMeister"},
		To:      []mailer.Address{{Email: "user@example.com"}},
		Subject: "Hallo",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
		Tags:    []string{"waitlist-confirmation"},
	})
	require.NoError(t, err)
	require.Equal(t, "<abc@smtp-relay>", id)
}

func TestClient_WithBaseURL(t *testing.T) {
	c := brevo.New(&http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "sandbox.local", r.URL.Host)
		require.Equal(t, "/v3/contacts/lists/1", r.URL.Path)

		return jsonResponse(http.StatusOK, `{"id":1,"totalSubscribers":0}`), nil
	})}, "k", brevo.WithBaseURL("http://sandbox.local/v3/"))

	_, err := c.List(context.Background(), 1)
	require.NoError(t, err)
}

func TestParseError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   serrors.Kind
		msg    string
	}{
		{"bad request with message", 400, `{"code":"duplicate_parameter","message":"List already exist"}`,
			serrors.ErrBadRequest, "brevo: List already exist"},
		{"unauthorized", 401, `{"code":"unauthorized","message":"Key not found"}`,
			serrors.ErrUnauthorized, "brevo: Key not found"},
		{"plain body", 503, "maintenance", serrors.ErrUnavailable, "brevo: maintenance"},
		{"empty body", 500, "", serrors.ErrUnavailable, "brevo: Internal Server Error"},
		{"unexpected status", 409, "", serrors.ErrInternal, "brevo: Conflict"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := brevo.ParseError(tc.status, []byte(tc.body))
			require.ErrorIs(t, err, tc.kind)
			require.Equal(t, tc.msg, err.Error())
		})
	}
}
