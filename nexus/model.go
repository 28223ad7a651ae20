package nexus

import (
	"errors"
	"fmt"
)

// ModID identifies a mod within a game domain.
type ModID int

// UserProfile is the account behind an API key, as returned by the
// users/validate.json endpoint.
type UserProfile struct {
	UserID     int    `json:"user_id" validate:"required"`
	Key        string `json:"key,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	IsPremium  bool   `json:"is_premium"`
	ProfileURL string `json:"profile_url,omitempty" validate:"omitempty,url"`
}

// ModInfo is the metadata record for one mod.
type ModInfo struct {
	ModID            ModID  `json:"mod_id" validate:"required"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	Version          string `json:"version"`
	Author           string `json:"author"`
	Status           string `json:"status"`
	Available        bool   `json:"available"`
	DomainName       string `json:"domain_name"`
	CreatedTimestamp int64  `json:"created_timestamp"`
	UpdatedTimestamp int64  `json:"updated_timestamp"`
}

// FileInfo describes one downloadable file version of a mod.
type FileInfo struct {
	FileID            int    `json:"file_id" validate:"required"`
	Name              string `json:"name"`
	Version           string `json:"version"`
	CategoryName      string `json:"category_name"`
	IsPrimary         bool   `json:"is_primary"`
	SizeKB            int64  `json:"size_kb"`
	FileName          string `json:"file_name"`
	MD5               string `json:"md5,omitempty"`
	UploadedTimestamp int64  `json:"uploaded_timestamp"`
}

// FileUpdate records a supersession between two file versions.
type FileUpdate struct {
	OldFileID         int   `json:"old_file_id"`
	NewFileID         int   `json:"new_file_id"`
	UploadedTimestamp int64 `json:"uploaded_timestamp"`
}

// FileList is the files.json response for one mod.
type FileList struct {
	Files       []FileInfo   `json:"files"`
	FileUpdates []FileUpdate `json:"file_updates"`
}

// DownloadLink is one CDN mirror entry from download_link.json. The
// API spells the link field URI.
type DownloadLink struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	URI       string `json:"URI" validate:"required,url"`
}

// Aggregated maps every requested mod id to its per-id result. Each
// requested id is present exactly once whether its fetch succeeded or
// not.
type Aggregated[T any] map[ModID]Entry[T]

// Values returns only the successful entries, keyed by mod id.
func (a Aggregated[T]) Values() map[ModID]T {
	out := make(map[ModID]T, len(a))
	for id, e := range a {
		if e.OK() {
			out[id] = e.Value
		}
	}

	return out
}

// Entry holds either a fetched value or the failure that replaced it.
type Entry[T any] struct {
	Value T
	Err   *FetchError
}

// OK reports whether the entry carries a value.
func (e Entry[T]) OK() bool { return e.Err == nil }

// FetchError records which mod and endpoint a per-id failure belongs
// to, so one bad id in a batch stays attributable.
type FetchError struct {
	ModID    ModID
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("mod %d: %s: %v", e.ModID, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoCredential is returned by [New] when the credential holds no
	// API key.
	ErrNoCredential = errors.New("no api key in credential")

	// ErrNoDownloadLinks means download_link.json returned an empty
	// mirror list.
	ErrNoDownloadLinks = errors.New("no download links returned")

	// ErrDecode marks a 2xx body that failed to decode or validate.
	ErrDecode = errors.New("undecodable response body")
)
