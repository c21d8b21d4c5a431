package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMTPSenderRejectsHeaderInjection(t *testing.T) {
	err := SMTPSender{Addr: "localhost:1", From: "orders@toko.local"}.Send("a@example.com\r\nBcc: x@example.com", "hi", "<p>x</p>")
	require.ErrorContains(t, err, "line break")
}

func TestSMTPMessage(t *testing.T) {
	msg := string(smtpMessage("orders@toko.local", "a@example.com", "Order ABC confirmed", "<p>ok</p>"))
	require.Contains(t, msg, "To: a@example.com\r\n")
	require.Contains(t, msg, "Subject: Order ABC confirmed\r\n")
	require.Contains(t, msg, "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n<p>ok</p>")
}

func TestInMemoryEmailRecords(t *testing.T) {
	var m InMemoryEmail
	require.NoError(t, m.Send("a@example.com", "s", "b"))
	require.Equal(t, []Email{{To: "a@example.com", Subject: "s", HTML: "b"}}, m.Sent())
}
