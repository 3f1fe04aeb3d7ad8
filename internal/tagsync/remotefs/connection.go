package remotefs

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
)

// connection is the HTTP transport shared by every systemtags API
// call, grounded on original_source/src/remote_fs/requests/common.rs's
// Connection: base URL + HTTP basic auth + a retry loop for Nextcloud's
// transient "database is locked" error. clock drives that retry loop's
// backoff wait, mirroring how tagstore_test.go's StoreTestSuite swaps a
// clock.Mock into the tag store's pruning clock to make timing
// deterministic under test.
type connection struct {
	baseURL *url.URL
	user    string
	token   string
	client  *http.Client
	clock   clock.Clock
}

func newConnection(instance, user, token string) (*connection, error) {
	return newConnectionWithClock(instance, user, token, clock.New())
}

func newConnectionWithClock(instance, user, token string, clk clock.Clock) (*connection, error) {
	base, err := url.Parse(strings.TrimSuffix(instance, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing nextcloud_instance %q: %w", instance, err)
	}
	return &connection{
		baseURL: base,
		user:    user,
		token:   token,
		client:  &http.Client{},
		clock:   clk,
	}, nil
}

// lockWaitError is returned by do when the server reports the
// LockWaitTimeoutException Nextcloud raises under write contention; it
// is the signal retry.go's bounded retry loop watches for, mirroring
// common.rs's is_database_lock_error.
type lockWaitError struct {
	status int
}

func (e *lockWaitError) Error() string {
	return fmt.Sprintf("nextcloud database lock wait timeout (status %d)", e.status)
}

// do executes one HTTP request against the systemtags/WebDAV API with
// basic auth, returning the response headers and body. rawPath is
// joined onto the connection's base URL as already-percent-encoded
// (callers are expected to have escaped it via syncedpath.EncodePath).
// Both u.Path and u.RawPath are set so url.URL re-derives the same
// escaped path on output instead of re-escaping rawPath's '%' bytes.
func (c *connection) do(ctx context.Context, method, rawPath string, body []byte, contentType string) (http.Header, []byte, error) {
	u := *c.baseURL
	encodedSuffix := strings.TrimPrefix(rawPath, "/")
	decodedSuffix, err := url.PathUnescape(encodedSuffix)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding path %q: %w", rawPath, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + decodedSuffix
	u.RawPath = strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + "/" + encodedSuffix

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("building request %s %s: %w", method, u, err)
	}
	req.SetBasicAuth(c.user, c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logsetup.Debugf("starting request %s %s", method, u)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body for %s %s: %w", method, u, err)
	}

	if resp.StatusCode >= 400 {
		if isLockWaitTimeout(resp.StatusCode, respBody) {
			return nil, nil, &lockWaitError{status: resp.StatusCode}
		}
		return nil, nil, fmt.Errorf("request %s %s failed with status %d: %s", method, u, resp.StatusCode, respBody)
	}

	return resp.Header, respBody, nil
}

func isLockWaitTimeout(status int, body []byte) bool {
	return status >= 500 && strings.Contains(string(body), "LockWaitTimeoutException")
}

func parseMultiStatus(body []byte) (davMultiStatus, error) {
	var ms davMultiStatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return davMultiStatus{}, fmt.Errorf("parsing multistatus response: %w", err)
	}
	return ms, nil
}
