package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"

	"aead.dev/minisign"
	"github.com/minio/selfupdate"
	"golang.org/x/mod/semver"

	"logviewer/logger"
)

const chunkSize = 32 * 1024

var (
	ErrNoPlatform       = errors.New("release has no artifact for this platform")
	ErrInvalidVersion   = errors.New("invalid version")
	ErrInvalidSignature = errors.New("update signature verification failed")
	ErrNoPublicKey      = errors.New("no updater public key configured")
)

// manifest is the release document served by the update endpoint.
type manifest struct {
	Version   string              `json:"version"`
	Notes     string              `json:"notes"`
	PubDate   string              `json:"pub_date"`
	Platforms map[string]platform `json:"platforms"`
}

type platform struct {
	Signature string `json:"signature"`
	URL       string `json:"url"`
}

// HTTPService talks to a static release manifest over HTTP.
type HTTPService struct {
	Endpoint       string
	PublicKey      string
	CurrentVersion string

	// Platform is the manifest key, "<os>-<arch>". Defaults to the running one.
	Platform string
	// TargetPath is the file to replace; empty means the running executable.
	TargetPath string

	Client *http.Client
}

// PlatformKey returns the manifest key for goos/goarch.
func PlatformKey(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	}
	return goos + "-" + arch
}

func (s *HTTPService) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *HTTPService) platform() string {
	if s.Platform != "" {
		return s.Platform
	}
	return PlatformKey(runtime.GOOS, runtime.GOARCH)
}

func canonical(v string) (string, error) {
	c := v
	if !strings.HasPrefix(c, "v") {
		c = "v" + c
	}
	if !semver.IsValid(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return c, nil
}

func (s *HTTPService) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return s.client().Do(req)
}

// Check fetches the manifest and returns a release newer than CurrentVersion.
// A 204 response means no update.
func (s *HTTPService) Check(ctx context.Context) (*Release, error) {
	current, err := canonical(s.CurrentVersion)
	if err != nil {
		return nil, err
	}

	resp, err := s.get(ctx, s.Endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update endpoint returned %s", resp.Status)
	}

	var m manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	latest, err := canonical(m.Version)
	if err != nil {
		return nil, err
	}
	if semver.Compare(latest, current) <= 0 {
		return nil, nil
	}

	p, ok := m.Platforms[s.platform()]
	if !ok || p.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPlatform, s.platform())
	}

	return &Release{
		Version:   m.Version,
		Notes:     m.Notes,
		PubDate:   m.PubDate,
		URL:       p.URL,
		Signature: p.Signature,
	}, nil
}

// Download reads the artifact in fixed-size chunks.
func (s *HTTPService) Download(ctx context.Context, rel *Release, onChunk ChunkFunc, onFinish func()) ([]byte, error) {
	resp, err := s.get(ctx, rel.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %s", resp.Status)
	}

	var total *int64
	if resp.ContentLength >= 0 {
		n := resp.ContentLength
		total = &n
	}

	var out bytes.Buffer
	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			if onChunk != nil {
				onChunk(n, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("download interrupted: %w", rerr)
		}
	}

	if onFinish != nil {
		onFinish()
	}
	return out.Bytes(), nil
}

// Install verifies the payload signature and swaps the target binary.
func (s *HTTPService) Install(ctx context.Context, rel *Release, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := verify(s.PublicKey, rel.Signature, payload); err != nil {
		return err
	}

	err := selfupdate.Apply(bytes.NewReader(payload), selfupdate.Options{
		TargetPath: s.TargetPath,
	})
	if err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			logger.WithError(rerr, "Rollback after failed update also failed")
		}
		return err
	}
	return nil
}

// decodeMaybeBase64 accepts minisign text either raw or base64-wrapped.
func decodeMaybeBase64(s string) []byte {
	s = strings.TrimSpace(s)
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		if bytes.HasPrefix(decoded, []byte("untrusted comment:")) {
			return decoded
		}
	}
	return []byte(s)
}

func parsePublicKey(s string) (minisign.PublicKey, error) {
	var pk minisign.PublicKey
	if strings.TrimSpace(s) == "" {
		return pk, ErrNoPublicKey
	}

	text := decodeMaybeBase64(s)
	// A full key file has a comment line followed by the key line.
	lines := strings.Split(strings.TrimSpace(string(text)), "\n")
	key := strings.TrimSpace(lines[len(lines)-1])

	if err := pk.UnmarshalText([]byte(key)); err != nil {
		return pk, fmt.Errorf("invalid updater public key: %w", err)
	}
	return pk, nil
}

func verify(publicKey, signature string, payload []byte) error {
	pk, err := parsePublicKey(publicKey)
	if err != nil {
		return err
	}
	if strings.TrimSpace(signature) == "" {
		return ErrInvalidSignature
	}
	if !minisign.Verify(pk, payload, decodeMaybeBase64(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
