package remotefs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// listTagsBody is the PROPFIND body requesting every systemtag's
// identity, name and visibility, grounded on
// requests/list_tags.rs's ListTags template (the original's
// "load_tags.xml" askama template; reconstructed here since templates
// were not part of the filtered source).
const listTagsBody = `<?xml version="1.0"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <oc:id/>
    <oc:display-name/>
    <oc:user-visible/>
    <oc:user-assignable/>
  </d:prop>
</d:propfind>`

// listTags fetches every user-visible, user-assignable systemtag,
// grounded on requests/list_tags.rs's ListTags request/parse pair.
func listTags(ctx context.Context, c *connection) (map[TagID]tag.Tag, error) {
	var body []byte
	err := c.withLockRetry(ctx, func() error {
		var doErr error
		_, body, doErr = c.do(ctx, "PROPFIND", "remote.php/dav/systemtags", []byte(listTagsBody), "application/xml")
		return doErr
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	ms, err := parseMultiStatus(body)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make(map[TagID]tag.Tag)
	for _, resp := range ms.Responses {
		for _, ps := range resp.Propstat {
			p := ps.Prop
			if p.ID == "" || p.DisplayName == "" {
				continue
			}
			if p.UserVisible == "false" || p.UserAssignable == "false" {
				continue
			}
			id, err := strconv.ParseUint(p.ID, 10, 64)
			if err != nil {
				continue
			}
			t, err := tag.New(p.DisplayName)
			if err != nil {
				continue
			}
			out[TagID(id)] = t
		}
	}
	return out, nil
}

// createTag creates a new systemtag named t and returns its assigned
// id, parsed out of the Content-Location response header, grounded on
// requests/create_tag.rs.
func createTag(ctx context.Context, c *connection, t tag.Tag) (TagID, error) {
	payload := fmt.Sprintf(`{"name":%q,"userVisible":true,"userAssignable":true,"canAssign":true}`, t.String())

	var headers http.Header
	err := c.withLockRetry(ctx, func() error {
		var doErr error
		headers, _, doErr = c.do(ctx, http.MethodPost, "remote.php/dav/systemtags", []byte(payload), "application/json")
		return doErr
	})
	if err != nil {
		return 0, fmt.Errorf("creating tag %s: %w", t, err)
	}

	location := headers.Get("Content-Location")
	if location == "" {
		return 0, fmt.Errorf("creating tag %s: response missing Content-Location header", t)
	}
	idStr := location[strings.LastIndex(location, "/")+1:]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("creating tag %s: invalid tag id in Content-Location %q: %w", t, location, err)
	}
	return TagID(id), nil
}

// getFileIDBody is the PROPFIND body requesting only a file's numeric
// id, grounded on requests/get_file_id.rs's GetFileId template.
const getFileIDBody = `<?xml version="1.0"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <oc:fileid/>
  </d:prop>
</d:propfind>`

// getFileID resolves remotePath (already percent-encoded, rooted at
// /remote.php/dav/files/<user>/...) to its numeric file id.
func getFileID(ctx context.Context, c *connection, remotePath string) (FileID, error) {
	var body []byte
	err := c.withLockRetry(ctx, func() error {
		var doErr error
		_, body, doErr = c.do(ctx, "PROPFIND", remotePath, []byte(getFileIDBody), "application/xml")
		return doErr
	})
	if err != nil {
		return 0, fmt.Errorf("getting file id for %s: %w", remotePath, err)
	}

	ms, err := parseMultiStatus(body)
	if err != nil {
		return 0, fmt.Errorf("getting file id for %s: %w", remotePath, err)
	}
	for _, resp := range ms.Responses {
		for _, ps := range resp.Propstat {
			if ps.Prop.FileID == "" {
				continue
			}
			id, err := strconv.ParseUint(ps.Prop.FileID, 10, 64)
			if err != nil {
				continue
			}
			return FileID(id), nil
		}
	}
	return 0, fmt.Errorf("getting file id for %s: response contained no fileid", remotePath)
}

// listFilesWithTagBody is the REPORT body filtering files by systemtag
// id and requesting each match's fileid and resourcetype alongside its
// href, grounded on requests/list_files_with_tag.rs's
// "list_files_with_tag.xml" template — extended here to also request
// oc:fileid, since BuildRepository needs each file's id to later
// address it through the systemtags-relations API without one
// GetFileId round trip per file (list_tags.rs/fs.rs's FileTagHelper
// expects exactly these (FileId, href) pairs; the upstream template as
// filtered into original_source did not retain the fileid request,
// which this reconstruction restores), and d:resourcetype, so
// listFilesWithTag can tell a tagged directory apart from a tagged
// file and exclude the former per spec.md §6/§9.
func listFilesWithTagBody(id TagID) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<oc:filter-files xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <oc:fileid/>
    <d:resourcetype/>
  </d:prop>
  <oc:filter-rules>
    <oc:systemtag>%s</oc:systemtag>
  </oc:filter-rules>
</oc:filter-files>`, id)
}

// taggedFile is one (file id, path) pair returned by listFilesWithTag.
type taggedFile struct {
	ID   FileID
	Href string
}

// listFilesWithTag returns the id and href of every file carrying id.
func listFilesWithTag(ctx context.Context, c *connection, user string, id TagID) ([]taggedFile, error) {
	var body []byte
	err := c.withLockRetry(ctx, func() error {
		var doErr error
		_, body, doErr = c.do(ctx, "REPORT", "remote.php/dav/files/"+user, []byte(listFilesWithTagBody(id)), "application/xml")
		return doErr
	})
	if err != nil {
		return nil, fmt.Errorf("listing files with tag %s: %w", id, err)
	}

	ms, err := parseMultiStatus(body)
	if err != nil {
		return nil, fmt.Errorf("listing files with tag %s: %w", id, err)
	}

	out := make([]taggedFile, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		var fileID FileID
		var isCollection bool
		for _, ps := range resp.Propstat {
			if ps.Prop.IsCollection() {
				isCollection = true
			}
			if ps.Prop.FileID == "" {
				continue
			}
			if n, err := strconv.ParseUint(ps.Prop.FileID, 10, 64); err == nil {
				fileID = FileID(n)
			}
		}
		if isCollection {
			// Directories can carry systemtags too, but spec.md §6/§9
			// require them excluded from the file-id list entirely.
			continue
		}
		out = append(out, taggedFile{ID: fileID, Href: resp.Href})
	}
	return out, nil
}

// tagFile assigns tag id to file id, grounded on requests/tag_file.rs.
func tagFile(ctx context.Context, c *connection, tag TagID, file FileID) error {
	path := fmt.Sprintf("remote.php/dav/systemtags-relations/files/%s/%s", file, tag)
	err := c.withLockRetry(ctx, func() error {
		_, _, doErr := c.do(ctx, http.MethodPut, path, nil, "")
		return doErr
	})
	if err != nil {
		return fmt.Errorf("tagging file %s with tag %s: %w", file, tag, err)
	}
	return nil
}

// untagFile removes tag id from file id, grounded on
// requests/untag_file.rs.
func untagFile(ctx context.Context, c *connection, tag TagID, file FileID) error {
	path := fmt.Sprintf("remote.php/dav/systemtags-relations/files/%s/%s", file, tag)
	err := c.withLockRetry(ctx, func() error {
		_, _, doErr := c.do(ctx, http.MethodDelete, path, nil, "")
		return doErr
	})
	if err != nil {
		return fmt.Errorf("untagging file %s of tag %s: %w", file, tag, err)
	}
	return nil
}
