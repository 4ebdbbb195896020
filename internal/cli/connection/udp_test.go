package connection

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSender_Send(t *testing.T) {
	conn := listenLoopback(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	payload := []byte("018bcfe5-6800-7abc-8def-0123456789ab")
	dst, err := NewSender().Send(context.Background(), "127.0.0.1", port, payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if int(dst.Port()) != port || dst.Addr().String() != "127.0.0.1" {
		t.Errorf("Send() destination = %s", dst)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP() error = %v", err)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("received %q, want %q", buf[:n], payload)
	}
}

func TestSender_SendHostname(t *testing.T) {
	conn := listenLoopback(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	dst, err := NewSender().Send(context.Background(), "localhost", port, []byte("x"))
	if err != nil {
		t.Skipf("localhost not resolvable here: %v", err)
	}
	if !dst.Addr().IsLoopback() {
		t.Errorf("Send() destination = %s, want loopback", dst)
	}
}

func TestSender_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		_, err := NewSender().Send(context.Background(), "127.0.0.1", port, []byte("x"))
		if !errors.Is(err, ErrInvalidPort) {
			t.Errorf("Send(port=%d) error = %v, want ErrInvalidPort", port, err)
		}
	}
}

func TestSender_EmptyHost(t *testing.T) {
	if _, err := NewSender().Send(context.Background(), "", 9999, []byte("x")); err == nil {
		t.Error("Send() with empty host should fail")
	}
}

func TestSender_Broadcast(t *testing.T) {
	// Only checks that the kernel accepts the write; delivery depends on
	// the host's interfaces.
	_, err := NewSender(WithTimeout(time.Second)).Send(context.Background(), "255.255.255.255", 9, []byte("x"))
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			t.Skipf("broadcast unavailable in this environment: %v", err)
		}
		t.Fatalf("Send(broadcast) error = %v", err)
	}
}

func TestWithTimeout_IgnoresNonPositive(t *testing.T) {
	s := NewSender(WithTimeout(0), WithTimeout(-time.Second))
	if s.timeout != DefaultSendTimeout {
		t.Errorf("timeout = %v, want %v", s.timeout, DefaultSendTimeout)
	}
	s = NewSender(WithTimeout(time.Second))
	if s.timeout != time.Second {
		t.Errorf("timeout = %v, want 1s", s.timeout)
	}
}

func TestJoinHostPort(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"10.0.0.5", 9999, "10.0.0.5:9999"},
		{"::1", 9999, "[::1]:9999"},
		{"enroll.local", 1, "enroll.local:1"},
	}
	for _, tt := range tests {
		if got := JoinHostPort(tt.host, tt.port); got != tt.want {
			t.Errorf("JoinHostPort(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
