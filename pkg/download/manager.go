// Package download fetches single asset variants over HTTP into their final
// library locations. Writes go through a temp file and an atomic rename so a
// crashed run never leaves a half-written media file under its real name.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/photomirror/photomirror/internal/logger"
	pkgerrors "github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

// chunkSize is the copy granularity; cancellation is observed between chunks.
const chunkSize = 128 * 1024

// Manager is an HTTP-based variant fetcher with checksum verification.
// Retries are the caller's concern; the manager only classifies failures as
// transient or permanent.
type Manager struct {
	client    *http.Client
	userAgent string

	// stallTimeout bounds the wait for response headers and for each body
	// chunk, not the whole transfer, so large originals on slow links are
	// never killed mid-download as long as bytes keep arriving.
	stallTimeout time.Duration
}

// Request describes one variant download.
type Request struct {
	URL        string
	TargetPath string // final absolute path for the media file
	Checksum   string // optional sha256 hex; verified when set
	TypeTag    string // reported API type tag, used for a content sanity check
}

// NewManager creates a new download manager with the given stall timeout and
// user agent.
func NewManager(timeout time.Duration, userAgent string) *Manager {
	if userAgent == "" {
		userAgent = "photomirror/1.0"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Manager{
		client:       &http.Client{Transport: transport},
		userAgent:    userAgent,
		stallTimeout: timeout,
	}
}

// Fetch downloads one variant to req.TargetPath. Errors wrap ErrTransient or
// ErrPermanent so the sync driver can decide whether to retry.
func (m *Manager) Fetch(ctx context.Context, req Request) error {
	if req.TargetPath == "" || !filepath.IsAbs(req.TargetPath) {
		return fmt.Errorf("target path must be absolute: %s: %w", req.TargetPath, pkgerrors.ErrInvalidPath)
	}
	if reused := m.tryReuseExisting(req); reused {
		return nil
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := m.doRequest(reqCtx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.Reader(resp.Body)
	if m.stallTimeout > 0 {
		watchdog := time.AfterFunc(m.stallTimeout, cancel)
		defer watchdog.Stop()
		body = &stallReader{r: resp.Body, timer: watchdog, timeout: m.stallTimeout}
	}

	tmpPath, err := m.writeBodyToTemp(ctx, body, req.TargetPath)
	if err != nil {
		return err
	}

	if req.Checksum != "" {
		ok, err := verifySHA256(tmpPath, req.Checksum)
		if err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
		if !ok {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("checksum mismatch for %s: %w", req.URL, pkgerrors.ErrFileHashMismatch)
		}
	}

	m.sanityCheckContent(tmpPath, req)

	if err := finalizeFile(tmpPath, req.TargetPath); err != nil {
		return err
	}
	return nil
}

// tryReuseExisting reports whether the target already holds the right bytes.
func (m *Manager) tryReuseExisting(req Request) bool {
	st, err := os.Stat(req.TargetPath)
	if err != nil || st.Size() == 0 {
		return false
	}
	if req.Checksum == "" {
		return true
	}
	ok, err := verifySHA256(req.TargetPath, req.Checksum)
	return err == nil && ok
}

func (m *Manager) doRequest(ctx context.Context, req Request) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v: %w", err, pkgerrors.ErrPermanent)
	}
	httpReq.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, classifyNetError(err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, classifyStatus(resp.StatusCode)
	}
	return resp, nil
}

// writeBodyToTemp streams the body into a temp file next to the target,
// observing cancellation between chunks. In-flight chunk writes finish.
func (m *Manager) writeBodyToTemp(ctx context.Context, body io.Reader, targetPath string) (string, error) {
	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return "", pkgerrors.Wrap(err, "could not create target dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(targetPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("download canceled: %v: %w", err, pkgerrors.ErrPermanent)
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				_ = tmp.Close()
				_ = os.Remove(tmpPath)
				return "", pkgerrors.Wrap(werr, "could not write file")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			// A cancel that the caller did not ask for is the stall
			// watchdog firing.
			if ctx.Err() == nil && errors.Is(rerr, context.Canceled) {
				return "", fmt.Errorf("no data received for %s: %w", m.stallTimeout, pkgerrors.ErrTransient)
			}
			return "", classifyNetError(rerr)
		}
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

// stallReader cancels the request when no bytes arrive within timeout. Each
// successful read re-arms the timer, so only a genuinely stalled connection
// is cut, never a slow but steady one.
type stallReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.timer.Reset(s.timeout)
	}
	return n, err
}

// sanityCheckContent warns when the downloaded bytes do not look like the
// type the server reported. Informational only.
func (m *Manager) sanityCheckContent(tmpPath string, req Request) {
	want := strings.ToLower(filepath.Ext(req.TargetPath))
	if want == "" {
		return
	}
	mt, err := mimetype.DetectFile(tmpPath)
	if err != nil || mt == nil {
		return
	}
	if !strings.EqualFold(mt.Extension(), want) && !mimeExtensionCompatible(mt.Extension(), want) {
		logger.Warn("downloaded content does not match expected type", logger.Fields{
			"target":   req.TargetPath,
			"type_tag": req.TypeTag,
			"detected": mt.String(),
		})
	}
}

// mimeExtensionCompatible covers common alias pairs the detector reports
// differently from our canonical table.
func mimeExtensionCompatible(detected, want string) bool {
	aliases := map[string][]string{
		".jpg":  {".jpeg"},
		".jpeg": {".jpg"},
		".mov":  {".qt"},
		".tif":  {".tiff"},
		".tiff": {".tif"},
		".heic": {".heif"},
		".heif": {".heic"},
	}
	for _, a := range aliases[want] {
		if strings.EqualFold(detected, a) {
			return true
		}
	}
	return false
}

func finalizeFile(tmpPath, targetPath string) error {
	if err := fsutil.Move(tmpPath, targetPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(targetPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}

// classifyNetError wraps a transport-level failure as transient. An explicit
// cancellation is permanent: retrying a canceled run is never useful. Client
// timeouts surface as net.Error and stay transient.
func classifyNetError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("timeout: %v: %w", err, pkgerrors.ErrTransient)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, pkgerrors.ErrPermanent)
	}
	return fmt.Errorf("%v: %w", err, pkgerrors.ErrTransient)
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError:
		return fmt.Errorf("status %d: %w", code, pkgerrors.ErrTransient)
	default:
		return fmt.Errorf("status %d: %w", code, pkgerrors.ErrPermanent)
	}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, pkgerrors.ErrTransient)
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, pkgerrors.Wrap(err, "hashing")
	}
	got := hex.EncodeToString(h.Sum(nil))
	return got == strings.ToLower(strings.TrimSpace(wantHex)), nil
}
