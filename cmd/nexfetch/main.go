// Command nexfetch validates a Nexus Mods API key, fetches metadata
// and file lists for a CSV of mod ids, and downloads each mod's
// primary archive. Non-premium keys cannot resolve CDN links through
// the API; for those the tool prints DownloadPopUp links instead and
// can open them in the browser.
package main

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nexfetch/nexfetch/auth"
	"github.com/nexfetch/nexfetch/browser"
	"github.com/nexfetch/nexfetch/client"
	"github.com/nexfetch/nexfetch/client/download"
	"github.com/nexfetch/nexfetch/config"
	"github.com/nexfetch/nexfetch/modlist"
	"github.com/nexfetch/nexfetch/nexus"
)

func main() {
	if err := run(); err != nil {
		slog.Error("nexfetch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// The config file path has to be known before the real flag set can
	// use loaded values as defaults, so it is scanned out first.
	pre := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	cfgPath := pre.String("config", "", "")
	_ = pre.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fs := pflag.CommandLine
	fs.String("config", *cfgPath, "Directory holding nexfetch.yaml")
	openBrowser := fs.Bool("open-browser", false, "Open DownloadPopUp links for non-premium accounts")
	skipDownload := fs.Bool("skip-download", false, "Fetch metadata and file lists only")
	cfg.AddFlags(fs)
	pflag.Parse()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := auth.LoadFromFile(cfg.APIKeyFile)
	if err != nil {
		return fmt.Errorf("loading api key: %w", err)
	}

	clientOpts := []client.Option{
		client.WithLogger(logger),
		client.WithTimeout(cfg.Timeout),
		client.WithUserAgent(cfg.UserAgent),
	}
	if cfg.RPS > 0 {
		clientOpts = append(clientOpts, client.WithThrottle(cfg.RPS, cfg.Burst))
	}

	c, err := client.Build(clientOpts...)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	svc, err := nexus.New(c, cred,
		nexus.WithStore(nexus.NewStore(cfg.ProfileDir, logger)),
		nexus.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	profile, err := svc.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validating api key: %w", err)
	}

	ids, err := modlist.FromCSV(cfg.ModList, cfg.ModListColumn)
	if err != nil {
		return err
	}
	logger.Info("mod list loaded", "mods", len(ids), "domain", cfg.Domain)

	meta, err := svc.FetchMetadata(ctx, cfg.Domain, ids)
	if err != nil {
		return fmt.Errorf("fetching metadata: %w", err)
	}
	logger.Info("metadata fetched", "ok", len(meta.Values()), "requested", len(ids))

	lists, err := svc.FetchFileLists(ctx, cfg.Domain, ids)
	if err != nil {
		return fmt.Errorf("fetching file lists: %w", err)
	}

	if *skipDownload {
		return nil
	}

	if !profile.IsPremium {
		return popupFallback(cfg.Domain, lists, *openBrowser, logger)
	}

	return downloadAll(ctx, c, svc, cfg, lists, logger)
}

// downloadAll resolves a CDN link for each mod's primary file and
// streams the archives concurrently. Per-mod failures are logged and
// the rest of the batch carries on; the joined failures come back from
// the queue at the end.
func downloadAll(ctx context.Context, c *client.Client, svc *nexus.Service, cfg *config.Config, lists nexus.Aggregated[nexus.FileList], logger *slog.Logger) error {
	var res *download.Result

	for id, entry := range lists {
		if !entry.OK() {
			continue
		}

		file, ok := primaryFile(entry.Value)
		if !ok {
			logger.Warn("mod has no downloadable files", "mod", int(id))
			continue
		}

		uri, err := svc.FirstDownloadLink(ctx, cfg.Domain, id, file.FileID)
		if err != nil {
			logger.Warn("resolving download link", "mod", int(id), "file", file.FileID, "error", err)
			continue
		}

		opts := []download.Option{download.WithSkipExisting()}
		if cfg.ChunkSize > 0 {
			opts = append(opts, download.WithChunkSize(cfg.ChunkSize))
		}
		if file.MD5 != "" {
			opts = append(opts, download.WithChecksum(md5.New(), file.MD5))
		}

		if res == nil {
			opts = append(opts, download.WithBatch(cfg.Concurrency))
			res = c.DownloadAsync(ctx, uri, cfg.DownloadDir, opts...)
		} else {
			res.Add(ctx, uri, cfg.DownloadDir, opts...)
		}

		logger.Info("download queued", "mod", int(id), "file", file.FileName)
	}

	if res == nil {
		logger.Info("nothing to download")
		return nil
	}

	if err := res.Wait(); err != nil {
		return fmt.Errorf("downloads finished with failures: %w", err)
	}

	logger.Info("all downloads complete", "dir", cfg.DownloadDir)

	return nil
}

// popupFallback prints a DownloadPopUp link per primary file so the
// archives can be grabbed manually through the site.
func popupFallback(domain string, lists nexus.Aggregated[nexus.FileList], open bool, logger *slog.Logger) error {
	var fileIDs []int
	for _, list := range lists.Values() {
		if file, ok := primaryFile(list); ok {
			fileIDs = append(fileIDs, file.FileID)
		}
	}

	links, err := browser.PopupLinks(domain, fileIDs)
	if err != nil {
		return err
	}

	logger.Info("account is not premium, direct links unavailable", "links", len(links))

	for _, link := range links {
		fmt.Println(link)
		if open {
			if err := browser.Open(link); err != nil {
				logger.Warn("opening browser", "link", link, "error", err)
			}
		}
	}

	return nil
}

// primaryFile picks the file flagged primary, falling back to the
// first listed.
func primaryFile(list nexus.FileList) (nexus.FileInfo, bool) {
	for _, f := range list.Files {
		if f.IsPrimary {
			return f, true
		}
	}

	if len(list.Files) > 0 {
		return list.Files[0], true
	}

	return nexus.FileInfo{}, false
}
