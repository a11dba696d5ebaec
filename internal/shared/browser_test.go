package shared

import (
	"errors"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tt := []struct {
		goos    string
		wantBin string
		wantErr bool
	}{
		{goos: "darwin", wantBin: "open"},
		{goos: "linux", wantBin: "xdg-open"},
		{goos: "windows", wantBin: "cmd"},
		{goos: "plan9", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.goos, func(t *testing.T) {
			cmd, err := browserCommand(tc.goos, "https://example.com")
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[0] != tc.wantBin {
				t.Errorf("expected %s, got %s", tc.wantBin, cmd.Args[0])
			}
		})
	}

	t.Run("OpenBrowser unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error on unsupported platform")
		}
	})
}

func TestRepairOrderURL(t *testing.T) {
	got := RepairOrderURL("https://shop.tekmetric.com", "238", "1501")
	want := "https://shop.tekmetric.com/admin/shop/238/repair-orders/1501/estimate"
	if got != want {
		t.Errorf("RepairOrderURL() = %q, want %q", got, want)
	}
}
