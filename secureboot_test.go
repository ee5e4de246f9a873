package razerdoctor

import (
	"context"
	"os"
	"testing"
)

const secureBootVar = "/sys/firmware/efi/efivars/SecureBoot-8be4df61-93ca-11d2-aa0d-00e098032b8c"

func TestCheckSecureBoot(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *host)
		wantNone   bool
		want       Status
		wantPrefix string
	}{
		{
			name:     "no EFI",
			setup:    func(h *host) {},
			wantNone: true,
		},
		{
			name:       "disabled",
			setup:      func(h *host) { h.write(secureBootVar, "\x06\x00\x00\x00\x00") },
			want:       StatusPass,
			wantPrefix: "Secure boot is enabled.",
		},
		{
			name:       "enabled",
			setup:      func(h *host) { h.write(secureBootVar, "\x06\x00\x00\x00\x01") },
			want:       StatusFail,
			wantPrefix: "Secure boot is enabled.",
		},
		{
			name:       "no variable",
			setup:      func(h *host) { h.mkdir("/sys/firmware/efi/efivars") },
			want:       StatusUnknown,
			wantPrefix: "Unable to automatically check.",
		},
		{
			name:       "empty variable",
			setup:      func(h *host) { h.write(secureBootVar, "") },
			want:       StatusUnknown,
			wantPrefix: "Unable to automatically check.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			tt.setup(h)
			c := newRunConfig([]RunOption{WithHostRoot(h.root)})

			res, err := checkSecureBoot(context.Background(), c)
			if err != nil {
				t.Fatalf("checkSecureBoot() error = %v", err)
			}
			if tt.wantNone {
				if len(res) != 0 {
					t.Errorf("got %+v, want no result", res)
				}
				return
			}
			if len(res) != 1 {
				t.Fatalf("got %d results, want 1", len(res))
			}
			if res[0].Passed != tt.want {
				t.Errorf("passed = %s, want %s", res[0].Passed, tt.want)
			}
			if got := res[0].Suggestions[0]; len(got) < len(tt.wantPrefix) || got[:len(tt.wantPrefix)] != tt.wantPrefix {
				t.Errorf("first suggestion = %q, want prefix %q", got, tt.wantPrefix)
			}
			if len(res[0].Suggestions) != 2 {
				t.Errorf("suggestions = %q", res[0].Suggestions)
			}
		})
	}
}

func TestCheckSecureBoot_Unreadable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read any file")
	}
	h := newHost(t)
	h.write(secureBootVar, "\x06\x00\x00\x00\x01")
	if err := os.Chmod(h.path(secureBootVar), 0); err != nil {
		t.Fatal(err)
	}
	c := newRunConfig([]RunOption{WithHostRoot(h.root)})

	if _, err := checkSecureBoot(context.Background(), c); err == nil {
		t.Error("expected fault for unreadable variable")
	}
}
