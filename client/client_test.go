package client_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nexfetch/nexfetch/client"
	"github.com/nexfetch/nexfetch/client/download"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// errTransport fails every round trip with a fixed error.
type errTransport struct {
	err error
}

func (et errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, et.err
}

// guardTransport fails the test if any request reaches the wire.
type guardTransport struct {
	t *testing.T
}

func (gt guardTransport) RoundTrip(*http.Request) (*http.Response, error) {
	gt.t.Error("request dispatched despite configuration error")
	return nil, errors.New("unreachable")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestQueryMissingHeader(t *testing.T) {
	c, err := client.Build(
		client.WithTransport(guardTransport{t}),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	spec := client.NewQuerySpec("users/validate.json", "KEY")
	delete(spec.Headers, client.HeaderAPIKey)

	if _, err := c.Query(context.Background(), spec); !errors.Is(err, client.ErrMissingHeader) {
		t.Fatalf("err = %v, want ErrMissingHeader", err)
	}
}

func TestQueryMissingURL(t *testing.T) {
	c, err := client.Build(
		client.WithTransport(guardTransport{t}),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	spec := client.NewQuerySpec("", "KEY")

	out, err := c.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out.Kind != client.KindNetworkError || out.Failure != client.FailureMissingURL {
		t.Errorf("outcome = %v/%v, want network error / missing url", out.Kind, out.Failure)
	}
}

func TestQueryNetworkFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want client.Failure
	}{
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, client.FailureConnectFailed},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "api.nexusmods.com"}, client.FailureConnectFailed},
		{"timeout", timeoutErr{}, client.FailureTimedOut},
		{"deadline", context.DeadlineExceeded, client.FailureTimedOut},
		{"dial timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, client.FailureConnectFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := client.Build(
				client.WithTransport(errTransport{err: tt.err}),
				client.WithLogger(discardLogger()),
			)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}

			out, err := c.Query(context.Background(), client.NewQuerySpec("games/skyrim/mods/1.json", "KEY"))
			if err != nil {
				t.Fatalf("Query: %v", err)
			}

			if out.Kind != client.KindNetworkError || out.Failure != tt.want {
				t.Errorf("outcome = %v/%v, want network error / %v", out.Kind, out.Failure, tt.want)
			}
			if out.OK() {
				t.Error("OK() = true for a network error")
			}

			var terr *client.TransportError
			if !errors.As(out.Err(), &terr) {
				t.Fatalf("Err() = %T, want *TransportError", out.Err())
			}
		})
	}
}

func TestQueryTooManyRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(
		client.WithBaseURL(ts.URL+"/"),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out, err := c.Query(context.Background(), client.NewQuerySpec("loop", "KEY"))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if out.Kind != client.KindNetworkError || out.Failure != client.FailureTooManyRedirects {
		t.Errorf("outcome = %v/%v, want network error / too many redirects", out.Kind, out.Failure)
	}
}

func TestQuerySuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "ABC123" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("accept"); got != "application/json" {
			t.Errorf("accept header = %q", got)
		}
		if got := r.URL.Query().Get("game_domain"); got != "skyrim" {
			t.Errorf("game_domain param = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"user_id": 7, "name": "dragonborn"}`)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(
		client.WithBaseURL(ts.URL+"/"),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	spec := client.NewQuerySpec("users/validate.json", "ABC123")
	spec.Params = map[string]string{"game_domain": "skyrim"}

	out, err := c.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !out.OK() || out.StatusCode != http.StatusOK {
		t.Fatalf("outcome = %v status %d, want success 200", out.Kind, out.StatusCode)
	}

	var user struct {
		UserID int    `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := out.Decode(&user); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := struct {
		UserID int    `json:"user_id"`
		Name   string `json:"name"`
	}{7, "dragonborn"}
	if diff := cmp.Diff(want, user); diff != "" {
		t.Errorf("decoded body mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryHTTPError(t *testing.T) {
	big := strings.Repeat("e", 8<<10)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, big)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(
		client.WithBaseURL(ts.URL+"/"),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out, err := c.Query(context.Background(), client.NewQuerySpec("games/skyrim/mods/999999.json", "KEY"))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if out.Kind != client.KindHTTPError || out.StatusCode != http.StatusNotFound {
		t.Fatalf("outcome = %v status %d, want http error 404", out.Kind, out.StatusCode)
	}
	if len(out.Body) != 4<<10 {
		t.Errorf("captured body = %d bytes, want the 4KB cap", len(out.Body))
	}

	var serr *client.StatusError
	if !errors.As(out.Err(), &serr) || serr.StatusCode != http.StatusNotFound {
		t.Errorf("Err() = %v, want *StatusError with 404", out.Err())
	}
	if !errors.Is(out.Err(), client.ErrUnexpectedStatusCode) {
		t.Error("Err() does not wrap ErrUnexpectedStatusCode")
	}
}

func TestQueryUserAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "nexfetch/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(
		client.WithBaseURL(ts.URL+"/"),
		client.WithUserAgent("nexfetch/1.0"),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := c.Query(context.Background(), client.NewQuerySpec("users/validate.json", "KEY")); err != nil {
		t.Fatalf("Query: %v", err)
	}
}

func TestDownload(t *testing.T) {
	payload := strings.Repeat("z", 250)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(client.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := t.TempDir()
	var totals []int64

	path, err := c.Download(context.Background(), ts.URL+"/files/Archive_3.7z?md5=abc", dir,
		download.WithChunkSize(100),
		download.WithProgress(func(_, total int64) { totals = append(totals, total) }),
	)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if want := filepath.Join(dir, "Archive_3.7z"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(got) != payload {
		t.Errorf("file content mismatch, got %d bytes", len(got))
	}

	if diff := cmp.Diff([]int64{100, 200, 250}, totals); diff != "" {
		t.Errorf("progress totals mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(client.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = c.Download(context.Background(), ts.URL+"/files/x.zip?k=v", t.TempDir())

	var serr *client.StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusGone {
		t.Fatalf("err = %v, want *StatusError with 410", err)
	}
}

func TestDownloadAsync(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload-"+r.URL.Path)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(client.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := t.TempDir()

	res := c.DownloadAsync(context.Background(), ts.URL+"/a.zip?k=v", dir, download.WithBatch(2))
	res.Add(context.Background(), ts.URL+"/b.zip?k=v", dir)

	if err := res.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	for _, name := range []string{"a.zip", "b.zip"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
