// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package mail

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
)

// smtpCapture is a minimal SMTP listener that records accepted messages.
type smtpCapture struct {
	ln       net.Listener
	mu       sync.Mutex
	rcpts    []string
	messages []string
}

func startSMTP(t *testing.T) *smtpCapture {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &smtpCapture{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *smtpCapture) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpCapture) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpCapture) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP test")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			_ = tp.PrintfLine("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			s.mu.Lock()
			s.rcpts = append(s.rcpts, strings.Trim(line[len("RCPT TO:"):], "<> "))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, string(data))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 Bye")
			return
		default:
			_ = tp.PrintfLine("502 Command not implemented")
		}
	}
}

func (s *smtpCapture) snapshot() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rcpts...), append([]string(nil), s.messages...)
}

func TestSMTPDispatcher_Send(t *testing.T) {
	srv := startSMTP(t)
	d := NewSMTPDispatcher(config.MailConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "noreply@critique.local",
		Timeout: 5 * time.Second,
	})

	err := d.Send(context.Background(), "dave@example.com", "Confirmation code", "Your confirmation code: abc-123")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	rcpts, msgs := srv.snapshot()
	if len(rcpts) != 1 || rcpts[0] != "dave@example.com" {
		t.Errorf("recipients = %v, want [dave@example.com]", rcpts)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	for _, want := range []string{
		"From: noreply@critique.local",
		"To: dave@example.com",
		"Subject: Confirmation code",
		"Your confirmation code: abc-123",
	} {
		if !strings.Contains(msgs[0], want) {
			t.Errorf("message missing %q:\n%s", want, msgs[0])
		}
	}
}

func TestSMTPDispatcher_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	d := NewSMTPDispatcher(config.MailConfig{Host: "127.0.0.1", Port: port, From: "a@b.c", Timeout: time.Second})
	if err := d.Send(context.Background(), "x@example.com", "s", "b"); err == nil {
		t.Error("Send() to closed port succeeded")
	}
}

func TestSMTPDispatcher_RejectsHeaderInjection(t *testing.T) {
	d := NewSMTPDispatcher(config.MailConfig{Host: "127.0.0.1", Port: 1, From: "a@b.c"})
	tests := []struct {
		name, recipient, subject string
	}{
		{"recipient", "x@example.com\r\nBcc: y@example.com", "s"},
		{"subject", "x@example.com", "hi\nBcc: y@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Send(context.Background(), tt.recipient, tt.subject, "b")
			if !errors.Is(err, models.ErrDispatchFailed) {
				t.Errorf("Send() error = %v, want ErrDispatchFailed", err)
			}
		})
	}
}

func TestLogDispatcher_Send(t *testing.T) {
	var buf bytes.Buffer
	saved := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(saved) })

	d := NewLogDispatcher("noreply@critique.local")
	if err := d.Send(context.Background(), "erin@example.com", "Confirmation code", "Your confirmation code: xyz"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"erin@example.com", "Your confirmation code: xyz", "Outgoing message"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingDispatcher) Send(context.Context, string, string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestGuarded_WrapsFailures(t *testing.T) {
	inner := &recordingDispatcher{err: errors.New("relay down")}
	g := NewGuarded("test-wrap", inner, config.MailConfig{BreakerMaxFailures: 10})

	err := g.Send(context.Background(), "a@example.com", "s", "b")
	if !errors.Is(err, models.ErrDispatchFailed) {
		t.Errorf("Send() error = %v, want ErrDispatchFailed", err)
	}
	if !strings.Contains(err.Error(), "relay down") {
		t.Errorf("Send() error = %v, want cause preserved", err)
	}
}

func TestGuarded_BreakerOpens(t *testing.T) {
	inner := &recordingDispatcher{err: errors.New("relay down")}
	g := NewGuarded("test-breaker", inner, config.MailConfig{
		BreakerMaxFailures: 3,
		BreakerTimeout:     time.Hour,
	})

	for i := 0; i < 3; i++ {
		_ = g.Send(context.Background(), "a@example.com", "s", "b")
	}
	if g.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", g.State())
	}

	err := g.Send(context.Background(), "a@example.com", "s", "b")
	if !errors.Is(err, models.ErrDispatchFailed) {
		t.Errorf("Send() error = %v, want ErrDispatchFailed", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Send() error = %v, want ErrOpenState", err)
	}
	if n := inner.count(); n != 3 {
		t.Errorf("inner calls = %d, want 3 (open breaker must not call through)", n)
	}
}

func TestGuarded_RateLimitHonorsContext(t *testing.T) {
	inner := &recordingDispatcher{}
	g := NewGuarded("test-rate", inner, config.MailConfig{RatePerSecond: 0.001, Burst: 1})

	if err := g.Send(context.Background(), "a@example.com", "s", "b"); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Send(ctx, "a@example.com", "s", "b")
	if !errors.Is(err, models.ErrDispatchFailed) {
		t.Errorf("throttled Send() error = %v, want ErrDispatchFailed", err)
	}
	if n := inner.count(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
}

func TestNew_Backends(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{BackendLog, false},
		{BackendSMTP, false},
		{"pigeon", true},
	}
	for _, tt := range tests {
		t.Run("backend="+strconv.Quote(tt.backend), func(t *testing.T) {
			_, err := New(config.MailConfig{Backend: tt.backend, Host: "localhost", Port: 25})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
