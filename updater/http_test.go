package updater

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"aead.dev/minisign"
)

const testPlatform = "linux-x86_64"

func newReleaseServer(t *testing.T, version string, artifact []byte, signature string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"version": %q,
			"notes": "fixes",
			"pub_date": "2026-10-01T00:00:00Z",
			"platforms": {%q: {"url": %q, "signature": %q}}
		}`, version, testPlatform, srv.URL+"/artifact", signature)
	})
	mux.HandleFunc("/artifact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(artifact)))
		w.Write(artifact)
	})
	mux.HandleFunc("/none", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPlatformKey(t *testing.T) {
	tests := []struct {
		goos, goarch, want string
	}{
		{"darwin", "arm64", "darwin-aarch64"},
		{"linux", "amd64", "linux-x86_64"},
		{"windows", "386", "windows-i686"},
		{"linux", "arm", "linux-armv7"},
		{"linux", "riscv64", "linux-riscv64"},
	}
	for _, tt := range tests {
		if got := PlatformKey(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("PlatformKey(%q, %q) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func TestHTTPServiceCheck(t *testing.T) {
	srv := newReleaseServer(t, "1.2.0", []byte("bin"), "sig")

	tests := []struct {
		name     string
		endpoint string
		current  string
		platform string
		want     string
		wantErr  error
		anyErr   bool
	}{
		{name: "newer release", endpoint: "/latest.json", current: "1.1.9", platform: testPlatform, want: "1.2.0"},
		{name: "same version", endpoint: "/latest.json", current: "1.2.0", platform: testPlatform},
		{name: "older release", endpoint: "/latest.json", current: "v2.0.0", platform: testPlatform},
		{name: "no content", endpoint: "/none", current: "1.0.0", platform: testPlatform},
		{name: "missing platform", endpoint: "/latest.json", current: "1.0.0", platform: "plan9-mips", wantErr: ErrNoPlatform},
		{name: "bad current version", endpoint: "/latest.json", current: "dev", platform: testPlatform, wantErr: ErrInvalidVersion},
		{name: "server error", endpoint: "/broken", current: "1.0.0", platform: testPlatform, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &HTTPService{
				Endpoint:       srv.URL + tt.endpoint,
				CurrentVersion: tt.current,
				Platform:       tt.platform,
			}
			rel, err := svc.Check(context.Background())

			if tt.wantErr != nil || tt.anyErr {
				if err == nil {
					t.Fatal("Check() expected an error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if tt.want == "" {
				if rel != nil {
					t.Errorf("Check() = %+v, want no update", rel)
				}
				return
			}
			if rel == nil || rel.Version != tt.want {
				t.Fatalf("Check() = %+v, want version %s", rel, tt.want)
			}
			if rel.URL != srv.URL+"/artifact" || rel.Signature != "sig" || rel.Notes != "fixes" {
				t.Errorf("Check() = %+v", rel)
			}
		})
	}
}

func TestHTTPServiceDownload(t *testing.T) {
	artifact := bytes.Repeat([]byte("x"), chunkSize*2+10)
	srv := newReleaseServer(t, "1.2.0", artifact, "sig")
	svc := &HTTPService{}

	var downloaded int64
	var lastTotal int64
	finished := 0
	payload, err := svc.Download(context.Background(), &Release{URL: srv.URL + "/artifact"},
		func(n int, total *int64) {
			if finished != 0 {
				t.Error("chunk reported after finish")
			}
			downloaded += int64(n)
			if total != nil {
				lastTotal = *total
			}
		},
		func() { finished++ },
	)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !bytes.Equal(payload, artifact) {
		t.Errorf("payload length = %d, want %d", len(payload), len(artifact))
	}
	if downloaded != int64(len(artifact)) || lastTotal != int64(len(artifact)) {
		t.Errorf("downloaded = %d, total = %d, want %d", downloaded, lastTotal, len(artifact))
	}
	if finished != 1 {
		t.Errorf("finish called %d times, want 1", finished)
	}
}

func TestHTTPServiceInstall(t *testing.T) {
	pub, priv, err := minisign.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	pubText, err := pub.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("#!/bin/sh\necho new\n")
	signature := minisign.Sign(priv, payload)

	tests := []struct {
		name      string
		publicKey string
		signature string
		wantErr   error
	}{
		{name: "raw signature", publicKey: string(pubText), signature: string(signature)},
		{name: "base64 signature", publicKey: string(pubText), signature: base64.StdEncoding.EncodeToString(signature)},
		{name: "tampered signature", publicKey: string(pubText), signature: string(minisign.Sign(priv, []byte("other"))), wantErr: ErrInvalidSignature},
		{name: "missing signature", publicKey: string(pubText), signature: "", wantErr: ErrInvalidSignature},
		{name: "missing key", publicKey: "", signature: string(signature), wantErr: ErrNoPublicKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "logviewer")
			if err := os.WriteFile(target, []byte("old"), 0755); err != nil {
				t.Fatal(err)
			}

			svc := &HTTPService{PublicKey: tt.publicKey, TargetPath: target}
			err := svc.Install(context.Background(), &Release{Signature: tt.signature}, payload)

			got, rerr := os.ReadFile(target)
			if rerr != nil {
				t.Fatal(rerr)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Install() error = %v, want %v", err, tt.wantErr)
				}
				if string(got) != "old" {
					t.Errorf("target replaced despite error: %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Install() error = %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("target = %q, want %q", got, payload)
			}
		})
	}
}

func TestHTTPServiceFullFlow(t *testing.T) {
	pub, priv, err := minisign.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	pubText, _ := pub.MarshalText()

	artifact := []byte("new build")
	sig := base64.StdEncoding.EncodeToString(minisign.Sign(priv, artifact))
	srv := newReleaseServer(t, "0.2.0", artifact, sig)

	target := filepath.Join(t.TempDir(), "logviewer")
	if err := os.WriteFile(target, []byte("old"), 0755); err != nil {
		t.Fatal(err)
	}

	svc := &HTTPService{
		Endpoint:       srv.URL + "/latest.json",
		PublicKey:      string(pubText),
		CurrentVersion: "0.1.0",
		Platform:       testPlatform,
		TargetPath:     target,
	}
	var log []string
	rst := &fakeRestarter{log: &log}

	if err := NewFlow(svc, rst).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rst.calls != 1 {
		t.Errorf("restart called %d times, want 1", rst.calls)
	}
	if got, _ := os.ReadFile(target); !bytes.Equal(got, artifact) {
		t.Errorf("target = %q, want %q", got, artifact)
	}
}
