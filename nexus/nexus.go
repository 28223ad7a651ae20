// Package nexus models the Nexus Mods v1 REST API: account
// validation, per-mod metadata and file lists, and download-link
// resolution. Batch operations aggregate results per requested mod id
// so one failing id never voids a batch.
package nexus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nexfetch/nexfetch/auth"
	"github.com/nexfetch/nexfetch/client"
)

// Querier dispatches one classified query. *client.Client satisfies
// it.
type Querier interface {
	Query(ctx context.Context, spec client.QuerySpec) (client.Outcome, error)
}

// Service issues Nexus API calls on behalf of one credential.
type Service struct {
	q      Querier
	key    string
	store  *Store
	logger *slog.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithStore persists fetched artifacts after each successful call.
func WithStore(store *Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New builds a service from a querier and an authenticated credential.
// A credential without a key is rejected here rather than failing on
// the first call.
func New(q Querier, cred *auth.Credential, optFns ...Option) (*Service, error) {
	if q == nil {
		return nil, errors.New("querier must not be nil")
	}
	if cred == nil {
		return nil, ErrNoCredential
	}

	key, ok := cred.Key()
	if !ok {
		return nil, ErrNoCredential
	}

	s := &Service{
		q:      q,
		key:    key,
		logger: slog.Default(),
	}
	for _, opt := range optFns {
		opt(s)
	}

	return s, nil
}

// Validate confirms the API key against users/validate.json and
// returns the account profile behind it.
func (s *Service) Validate(ctx context.Context) (*UserProfile, error) {
	spec := client.NewQuerySpec("users/validate.json", s.key)

	out, err := s.q.Query(ctx, spec)
	if err != nil {
		return nil, err
	}

	var profile UserProfile
	if err := out.Decode(&profile); err != nil {
		return nil, fmt.Errorf("validating api key: %w", err)
	}
	if err := check(profile); err != nil {
		return nil, fmt.Errorf("user profile: %w", err)
	}

	s.logger.Info("api key validated", "user", profile.Name, "premium", profile.IsPremium)

	if s.store != nil {
		if err := s.store.SaveUserProfile(&profile); err != nil {
			s.logger.Warn("persisting user profile", "error", err)
		}
	}

	return &profile, nil
}

// FetchMetadata retrieves the metadata record for every id in ids.
// The result holds one entry per requested id: a decoded ModInfo on
// success, an attributed FetchError otherwise. Only a configuration
// error aborts the batch.
func (s *Service) FetchMetadata(ctx context.Context, domain string, ids []ModID) (Aggregated[ModInfo], error) {
	agg := make(Aggregated[ModInfo], len(ids))

	for _, id := range ids {
		path := modInfoPath(domain, id)

		info, err := fetchOne[ModInfo](ctx, s, path)
		if err != nil {
			var ferr *FetchError
			if !errors.As(err, &ferr) {
				return nil, err
			}
			ferr.ModID = id
			s.logger.Warn("metadata fetch failed", "mod", int(id), "endpoint", path, "error", ferr.Err)
			agg[id] = Entry[ModInfo]{Err: ferr}
			continue
		}

		agg[id] = Entry[ModInfo]{Value: *info}
	}

	if s.store != nil {
		if err := s.store.SaveModInfos(agg); err != nil {
			s.logger.Warn("persisting mod infos", "error", err)
		}
	}

	return agg, nil
}

// FetchFileLists retrieves the downloadable file list for every id in
// ids, aggregated the same way as [Service.FetchMetadata].
func (s *Service) FetchFileLists(ctx context.Context, domain string, ids []ModID) (Aggregated[FileList], error) {
	agg := make(Aggregated[FileList], len(ids))

	for _, id := range ids {
		path := fileListPath(domain, id)

		list, err := fetchOne[FileList](ctx, s, path)
		if err != nil {
			var ferr *FetchError
			if !errors.As(err, &ferr) {
				return nil, err
			}
			ferr.ModID = id
			s.logger.Warn("file list fetch failed", "mod", int(id), "endpoint", path, "error", ferr.Err)
			agg[id] = Entry[FileList]{Err: ferr}
			continue
		}

		agg[id] = Entry[FileList]{Value: *list}
	}

	if s.store != nil {
		if err := s.store.SaveFileLists(agg); err != nil {
			s.logger.Warn("persisting file lists", "error", err)
		}
	}

	return agg, nil
}

// ResolveDownloadLink queries download_link.json for one file of one
// mod and returns the raw classified outcome. Pair with
// [ParseDownloadLinks] to get the mirror list.
func (s *Service) ResolveDownloadLink(ctx context.Context, domain string, modID ModID, fileID int) (client.Outcome, error) {
	return s.q.Query(ctx, client.NewQuerySpec(downloadLinkPath(domain, modID, fileID), s.key))
}

// ParseDownloadLinks decodes a successful download_link.json outcome
// into its mirror list, preserving the API's ordering. An empty list
// is an error; the API returns at least one mirror for resolvable
// files.
func ParseDownloadLinks(out client.Outcome) ([]DownloadLink, error) {
	var links []DownloadLink
	if err := out.Decode(&links); err != nil {
		if out.OK() {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoDownloadLinks
	}

	for i, l := range links {
		if err := check(l); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}

	return links, nil
}

// DownloadLinks combines resolution and parsing.
func (s *Service) DownloadLinks(ctx context.Context, domain string, modID ModID, fileID int) ([]DownloadLink, error) {
	out, err := s.ResolveDownloadLink(ctx, domain, modID, fileID)
	if err != nil {
		return nil, err
	}

	links, err := ParseDownloadLinks(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", downloadLinkPath(domain, modID, fileID), err)
	}

	return links, nil
}

// FirstDownloadLink returns the URI of the first mirror for the given
// file, the one the API ranks preferred.
func (s *Service) FirstDownloadLink(ctx context.Context, domain string, modID ModID, fileID int) (string, error) {
	links, err := s.DownloadLinks(ctx, domain, modID, fileID)
	if err != nil {
		return "", err
	}

	return links[0].URI, nil
}

// fetchOne queries path and decodes the body into T. Decode and
// outcome failures come back as a *FetchError with the endpoint
// attributed; the caller fills in the mod id.
func fetchOne[T any](ctx context.Context, s *Service, path string) (*T, error) {
	out, err := s.q.Query(ctx, client.NewQuerySpec(path, s.key))
	if err != nil {
		return nil, err
	}

	var v T
	if err := out.Decode(&v); err != nil {
		if out.OK() {
			err = fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	if err := check(v); err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}

	return &v, nil
}

func modInfoPath(domain string, id ModID) string {
	return fmt.Sprintf("games/%s/mods/%d.json", domain, id)
}

func fileListPath(domain string, id ModID) string {
	return fmt.Sprintf("games/%s/mods/%d/files.json", domain, id)
}

func downloadLinkPath(domain string, modID ModID, fileID int) string {
	return fmt.Sprintf("games/%s/mods/%d/files/%d/download_link.json", domain, modID, fileID)
}
