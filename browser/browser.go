// Package browser builds DownloadPopUp links for the Nexus Mods
// website and opens them in the system browser. The popup route is
// the manual fallback for non-premium accounts, whose keys cannot
// resolve direct CDN links through the API.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

const popupFormat = "https://www.nexusmods.com/Core/Libs/Common/Widgets/DownloadPopUp?id=%d&game_id=%d&source=FileExpander"

// gameIDs maps a game domain to the site's numeric game id, which the
// popup route requires instead of the domain.
var gameIDs = map[string]int{
	"morrowind": 100,
	"oblivion":  101,
	"skyrim":    110,
}

// GameID returns the numeric site id for a game domain.
func GameID(domain string) (int, bool) {
	id, ok := gameIDs[domain]
	return id, ok
}

// PopupLink builds the DownloadPopUp URL for one file of a game.
func PopupLink(domain string, fileID int) (string, error) {
	gameID, ok := gameIDs[domain]
	if !ok {
		return "", fmt.Errorf("unknown game domain %q", domain)
	}

	return fmt.Sprintf(popupFormat, fileID, gameID), nil
}

// PopupLinks builds one DownloadPopUp URL per file id, preserving
// order.
func PopupLinks(domain string, fileIDs []int) ([]string, error) {
	links := make([]string, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		link, err := PopupLink(domain, fileID)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, nil
}

// Open launches url in the system browser.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}

	return nil
}
