package browser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nexfetch/nexfetch/browser"
)

func TestPopupLink(t *testing.T) {
	link, err := browser.PopupLink("skyrim", 1000)
	if err != nil {
		t.Fatalf("PopupLink: %v", err)
	}

	want := "https://www.nexusmods.com/Core/Libs/Common/Widgets/DownloadPopUp?id=1000&game_id=110&source=FileExpander"
	if link != want {
		t.Errorf("link = %q, want %q", link, want)
	}
}

func TestPopupLinkUnknownDomain(t *testing.T) {
	if _, err := browser.PopupLink("starfield", 1); err == nil {
		t.Fatal("err = nil for unknown domain")
	}
}

func TestPopupLinks(t *testing.T) {
	links, err := browser.PopupLinks("morrowind", []int{1, 2})
	if err != nil {
		t.Fatalf("PopupLinks: %v", err)
	}

	want := []string{
		"https://www.nexusmods.com/Core/Libs/Common/Widgets/DownloadPopUp?id=1&game_id=100&source=FileExpander",
		"https://www.nexusmods.com/Core/Libs/Common/Widgets/DownloadPopUp?id=2&game_id=100&source=FileExpander",
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestGameID(t *testing.T) {
	tests := []struct {
		domain string
		want   int
		ok     bool
	}{
		{"morrowind", 100, true},
		{"oblivion", 101, true},
		{"skyrim", 110, true},
		{"fallout4", 0, false},
	}

	for _, tt := range tests {
		got, ok := browser.GameID(tt.domain)
		if got != tt.want || ok != tt.ok {
			t.Errorf("GameID(%q) = %d, %v, want %d, %v", tt.domain, got, ok, tt.want, tt.ok)
		}
	}
}
