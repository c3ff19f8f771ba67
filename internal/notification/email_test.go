// File: internal/notification/email_test.go
package notification

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"apt_briefing_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// smtpCapture records what a plaintext test SMTP server saw. The server
// never offers STARTTLS, so a client requiring it must fail.
type smtpCapture struct {
	mu          sync.Mutex
	data        []string
	sawStartTLS bool
}

func (c *smtpCapture) appendData(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append(c.data, line)
}

func (c *smtpCapture) message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.data, "\r\n")
}

func (c *smtpCapture) startTLSRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sawStartTLS
}

func startPlainSMTPServer(t *testing.T) (int, *smtpCapture) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	capture := &smtpCapture{}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))

		write := func(s string) { fmt.Fprintf(conn, "%s\r\n", s) }
		write("220 localhost ready")

		reader := bufio.NewReader(conn)
		inData := false
		for {
			raw, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line := strings.TrimRight(raw, "\r\n")
			if inData {
				if line == "." {
					inData = false
					write("250 queued")
					continue
				}
				capture.appendData(line)
				continue
			}
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				write("250-localhost")
				write("250 8BITMIME")
			case line == "STARTTLS":
				capture.mu.Lock()
				capture.sawStartTLS = true
				capture.mu.Unlock()
				write("502 command not implemented")
			case strings.HasPrefix(line, "MAIL FROM"):
				write("250 ok")
			case strings.HasPrefix(line, "RCPT TO"):
				write("250 ok")
			case line == "DATA":
				write("354 end data with <CRLF>.<CRLF>")
				inData = true
			case line == "QUIT":
				write("221 bye")
				return
			default:
				write("250 ok")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, capture
}

func newTestEmailChannel(port int, useTLS bool) *EmailChannel {
	return NewEmailChannel(&config.Config{
		SMTPEnabled:     true,
		SMTPHost:        "127.0.0.1",
		SMTPPort:        port,
		SMTPSenderEmail: "alerts@apt-briefing.local",
		SMTPUseTLS:      useTLS,
	}, zap.NewNop())
}

func TestEmailSendPlaintextWhenTLSDisabled(t *testing.T) {
	port, capture := startPlainSMTPServer(t)
	channel := newTestEmailChannel(port, false)

	ok, reason := channel.Send("user@example.com", "급매 알림", "새 급매물 2건")
	require.True(t, ok, reason)

	assert.False(t, capture.startTLSRequested())
	msg := capture.message()
	assert.Contains(t, msg, "Subject: 급매 알림")
	assert.Contains(t, msg, "새 급매물 2건")
	assert.Contains(t, msg, "To: user@example.com")
}

func TestEmailSendRequiresTLSWhenConfigured(t *testing.T) {
	port, capture := startPlainSMTPServer(t)
	channel := newTestEmailChannel(port, true)

	// The test server rejects STARTTLS, so the delivery must fail rather
	// than fall back to plaintext.
	ok, reason := channel.Send("user@example.com", "급매 알림", "새 급매물 2건")
	assert.False(t, ok)
	assert.Contains(t, reason, "starttls")
	assert.True(t, capture.startTLSRequested())
	assert.Empty(t, capture.message())
}

func TestEmailSendDisabledChannel(t *testing.T) {
	channel := NewEmailChannel(&config.Config{SMTPEnabled: false}, zap.NewNop())
	ok, reason := channel.Send("user@example.com", "s", "b")
	assert.False(t, ok)
	assert.Equal(t, "email channel is disabled", reason)
}

func TestEmailSendMissingDestination(t *testing.T) {
	channel := newTestEmailChannel(2525, false)
	ok, reason := channel.Send("", "s", "b")
	assert.False(t, ok)
	assert.Equal(t, "no destination address", reason)
}
