package remotefs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSendsBasicAuthAndContentType(t *testing.T) {
	var gotUser, gotPass, gotContentType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotContentType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	conn, err := newConnection(srv.URL, "alice", "s3cr3t")
	require.NoError(t, err)

	_, body, err := conn.do(context.Background(), "PROPFIND", "systemtags", []byte("<x/>"), "application/xml")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "s3cr3t", gotPass)
	assert.Equal(t, "application/xml", gotContentType)
	assert.Equal(t, "PROPFIND", gotMethod)
}

func TestDoDoesNotDoubleEncodeAlreadyEscapedPath(t *testing.T) {
	var gotPath, gotEscaped string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEscaped = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	conn, err := newConnection(srv.URL, "alice", "s3cr3t")
	require.NoError(t, err)

	_, _, err = conn.do(context.Background(), "PROPFIND", "files/alice/docs/My%20File.txt", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/files/alice/docs/My File.txt", gotPath)
	assert.Equal(t, "/files/alice/docs/My%20File.txt", gotEscaped)
	assert.NotContains(t, gotEscaped, "%2520")
}

func TestDoReturnsLockWaitErrorOnTransientLock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("OCA\\Systemtags\\LockWaitTimeoutException: could not acquire lock"))
	}))
	defer srv.Close()

	conn, err := newConnection(srv.URL, "alice", "s3cr3t")
	require.NoError(t, err)

	_, _, err = conn.do(context.Background(), "PROPFIND", "systemtags", nil, "")
	var lockErr *lockWaitError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, http.StatusServiceUnavailable, lockErr.status)
}

func TestDoReturnsGenericErrorOnOtherFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	conn, err := newConnection(srv.URL, "alice", "s3cr3t")
	require.NoError(t, err)

	_, _, err = conn.do(context.Background(), "PROPFIND", "systemtags", nil, "")
	require.Error(t, err)
	var lockErr *lockWaitError
	assert.False(t, errors.As(err, &lockErr))
}

func TestIsLockWaitTimeout(t *testing.T) {
	assert.True(t, isLockWaitTimeout(503, []byte("...LockWaitTimeoutException...")))
	assert.False(t, isLockWaitTimeout(503, []byte("some other error")))
	assert.False(t, isLockWaitTimeout(403, []byte("...LockWaitTimeoutException...")))
}

func TestParseMultiStatus(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:response>
    <d:href>/remote.php/dav/systemtags/42</d:href>
    <d:propstat>
      <d:prop><oc:id>42</oc:id><oc:display-name>work</oc:display-name></d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`)

	ms, err := parseMultiStatus(body)
	require.NoError(t, err)
	require.Len(t, ms.Responses, 1)
	assert.Equal(t, "/remote.php/dav/systemtags/42", ms.Responses[0].Href)
	assert.Equal(t, "42", ms.Responses[0].Propstat[0].Prop.ID)
	assert.Equal(t, "work", ms.Responses[0].Propstat[0].Prop.DisplayName)
}
