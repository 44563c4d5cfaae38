package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maildummy/s3-magiclink/internal/magiclink"
	"github.com/maildummy/s3-magiclink/internal/storage"
)

// resetFlags restores every flag of the command tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// isolate points config at a temp dir, clears env overrides and resets
// command state after the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("MAGICLINK_CONFIG_DIR", t.TempDir())
	t.Setenv("CLICOLOR_FORCE", "0")
	for _, key := range []string{"REGION", "PREFIX", "ENDPOINT", "OUTPUT", "LOG_LEVEL"} {
		t.Setenv("MAGICLINK_"+key, "")
	}

	oldStore := newObjectStore
	oldOpen := openURLInBrowserFunc
	t.Cleanup(func() {
		newObjectStore = oldStore
		openURLInBrowserFunc = oldOpen
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	resetFlags(rootCmd)
}

// execute runs rootCmd with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(normalizeArgs(args))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// useMockStore wires the finder to an in-memory bucket and records the
// options the CLI asked for.
func useMockStore(api *storage.MockAPI) *storage.Options {
	var got storage.Options
	newObjectStore = func(ctx context.Context, opts storage.Options) (magiclink.ObjectStore, error) {
		got = opts
		return storage.New(api), nil
	}
	return &got
}

func minute(m int) *time.Time {
	t := time.Date(2025, 1, 10, 9, m, 0, 0, time.UTC)
	return &t
}

func rawEmail(to, body string) []byte {
	return []byte("From: noreply@mail.app.supabase.io\r\nTo: " + to +
		"\r\nSubject: Magic Link\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" + body + "\r\n")
}

// fakeS3 serves just enough of the S3 REST API (path-style ListObjectsV2 and
// GetObject) for the real SDK client.
func fakeS3(t *testing.T, bucket string, objects []storage.MockObject) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		name, key, _ := strings.Cut(path, "/")
		if name != bucket {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>The specified bucket does not exist</Message></Error>`)
			return
		}

		if r.URL.Query().Get("list-type") == "2" {
			prefix := r.URL.Query().Get("prefix")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
			fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><IsTruncated>false</IsTruncated>", bucket, prefix)
			for _, obj := range objects {
				if !strings.HasPrefix(obj.Key, prefix) {
					continue
				}
				fmt.Fprintf(&b, "<Contents><Key>%s</Key>", obj.Key)
				if obj.LastModified != nil {
					fmt.Fprintf(&b, "<LastModified>%s</LastModified>", obj.LastModified.UTC().Format("2006-01-02T15:04:05.000Z"))
				}
				fmt.Fprintf(&b, "<Size>%d</Size></Contents>", len(obj.Body))
			}
			b.WriteString("</ListBucketResult>")
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, b.String())
			return
		}

		for _, obj := range objects {
			if obj.Key == key {
				w.Header().Set("Content-Type", "message/rfc822")
				w.Header().Set("Content-Length", fmt.Sprint(len(obj.Body)))
				_, _ = w.Write(obj.Body)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}
