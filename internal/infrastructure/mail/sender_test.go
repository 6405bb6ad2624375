package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, SenderLog, s.Name())

	s, err = NewSender(config.EmailConfig{Sender: "resend", ResendAPIKey: "re_test", From: "billing@example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, SenderResend, s.Name())

	_, err = NewSender(config.EmailConfig{Sender: "resend"}, nil)
	assert.Error(t, err)

	_, err = NewSender(config.EmailConfig{Sender: "smtp"}, nil)
	assert.Error(t, err)
}

func TestLogSender_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	id, err := s.Send(context.Background(), &Email{
		To:          []string{"a@example.com"},
		Subject:     "Invoice INV-1",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{FileName: "INV-1.pdf"}},
	})

	require.NoError(t, err)
	assert.Contains(t, id, "log-")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Invoice INV-1", logs.All()[0].ContextMap()["subject"])

	_, err = s.Send(context.Background(), &Email{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s, err := NewResendSender(config.EmailConfig{
		ResendAPIKey: "re_test",
		From:         "Bright Path <billing@example.com>",
		ReplyTo:      "office@example.com",
	}, nil, WithBaseURL(base))
	require.NoError(t, err)

	id, err := s.Send(context.Background(), &Email{
		To:          []string{"parent@example.com"},
		Subject:     "Your invoice",
		HTML:        "<p>Attached</p>",
		Attachments: []Attachment{{FileName: "INV-1.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	})

	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, "Bright Path <billing@example.com>", got["from"])
	assert.Equal(t, "Your invoice", got["subject"])
	attachments, ok := got["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "INV-1.pdf", att["filename"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), att["content"])
}

func TestResendSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from"}`))
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL + "/")
	s, err := NewResendSender(config.EmailConfig{ResendAPIKey: "re_test", From: "x@example.com"}, nil, WithBaseURL(base))
	require.NoError(t, err)

	_, err = s.Send(context.Background(), &Email{To: []string{"a@example.com"}, Subject: "s", Text: "t"})
	assert.Error(t, err)
}
