package email

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMessage() Message {
	return Message{
		To:       "ayesha@example.com",
		ToName:   "Ayesha Khan",
		Subject:  "Your signup request was approved",
		HTMLBody: "<p>secret-password</p>",
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Message)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Message) {}},
		{name: "bad recipient", mutate: func(m *Message) { m.To = "not-an-address" }, wantErr: true},
		{name: "subject injection", mutate: func(m *Message) { m.Subject = "hi\r\nBcc: x@example.com" }, wantErr: true},
		{name: "name injection", mutate: func(m *Message) { m.ToName = "a\nb" }, wantErr: true},
		{name: "empty body", mutate: func(m *Message) { m.HTMLBody = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSender(t *testing.T) {
	logger := zerolog.Nop()

	s, err := NewSender(Config{Driver: DriverLog}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(Config{Driver: DriverSMTP, Host: "localhost", Port: 25}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	s, err = NewSender(Config{Driver: DriverSendGrid, SendGridAPIKey: "key"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SendGridSender{}, s)

	_, err = NewSender(Config{Driver: "carrier-pigeon"}, logger)
	assert.Error(t, err)
}

func TestLogSender_NeverLogsBody(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))

	require.NoError(t, s.Send(context.Background(), validMessage()))
	out := buf.String()
	assert.Contains(t, out, "ayesha@example.com")
	assert.Contains(t, out, "Your signup request was approved")
	assert.NotContains(t, out, "secret-password")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, validMessage()), context.Canceled)
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s := NewSMTPSender(Config{FromName: "University Portal", FromEmail: "no-reply@uni.edu"})
	raw := string(s.buildMessage(validMessage(), time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)))

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, `From: "University Portal" <no-reply@uni.edu>`)
	assert.Contains(t, headers, `To: "Ayesha Khan" <ayesha@example.com>`)
	assert.Contains(t, headers, "Subject: Your signup request was approved")
	assert.Contains(t, headers, "Content-Type: text/html; charset=UTF-8")
	assert.Equal(t, "<p>secret-password</p>", body)
}

func TestSMTPSender_DialFailure(t *testing.T) {
	s := NewSMTPSender(Config{Host: "127.0.0.1", Port: 1, FromEmail: "no-reply@uni.edu"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, s.Send(ctx, validMessage()))
	assert.ErrorIs(t, s.Send(ctx, Message{To: "bad"}), ErrInvalidMessage)
}

func TestSendGridSender_Prepare(t *testing.T) {
	s := NewSendGridSender("key", "University Portal", "no-reply@uni.edu")
	m := s.prepare(validMessage())

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "Your signup request was approved", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "ayesha@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "no-reply@uni.edu", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/html", m.Content[0].Type)
}
