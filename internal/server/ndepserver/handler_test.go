package ndepserver

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/domain"
)

func TestDecode(t *testing.T) {
	src := netip.MustParseAddrPort("192.168.1.40:51234")

	tests := []struct {
		name    string
		d       datagram
		want    string
		wantErr bool
	}{
		{"canonical", datagram{payload: []byte("018bcfe5-6800-7abc-8def-0123456789ab")}, "018bcfe5-6800-7abc-8def-0123456789ab", false},
		{"trailing newline", datagram{payload: []byte("018bcfe5-6800-7abc-8def-0123456789ab\n")}, "018bcfe5-6800-7abc-8def-0123456789ab", false},
		{"surrounding spaces", datagram{payload: []byte("  abc\t")}, "abc", false},
		{"empty", datagram{payload: []byte{}}, "", false},
		{"invalid utf8", datagram{payload: []byte{0xff, 0xfe}}, "", true},
		{"oversize", datagram{oversize: true}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.d.source = src
			got, err := decode(tt.d, 1024)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrTokenMalformed) {
					t.Errorf("decode() error = %v, want ErrTokenMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode_OversizeDetails(t *testing.T) {
	_, err := decode(datagram{oversize: true}, 1024)
	if err == nil || !strings.Contains(err.Error(), "1024") {
		t.Errorf("decode() error = %v, want size in details", err)
	}
}
