package remotefs

import "strconv"

// TagID is a Nextcloud systemtag's numeric identifier, grounded on
// original_source/src/remote_fs/common.rs's newtype!(TagId, u64).
type TagID uint64

func (id TagID) String() string { return strconv.FormatUint(uint64(id), 10) }

// FileID is a Nextcloud file's numeric identifier, grounded on the
// same source's newtype!(FileId, u64).
type FileID uint64

func (id FileID) String() string { return strconv.FormatUint(uint64(id), 10) }

// davMultiStatus is the generic "DAV:multistatus" envelope every
// PROPFIND/REPORT response is wrapped in.
type davMultiStatus struct {
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string        `xml:"href"`
	Propstat []davPropstat `xml:"propstat"`
}

type davPropstat struct {
	Prop   davProp `xml:"prop"`
	Status string  `xml:"status"`
}

// davProp covers the properties this client reads across the three
// PROPFIND/REPORT requests it issues: systemtag identity/visibility
// (from the systemtags collection), oc:fileid and d:resourcetype (from
// the files collection).
type davProp struct {
	ID             string          `xml:"id"`
	DisplayName    string          `xml:"display-name"`
	UserVisible    string          `xml:"user-visible"`
	UserAssignable string          `xml:"user-assignable"`
	FileID         string          `xml:"fileid"`
	ResourceType   davResourceType `xml:"resourcetype"`
}

// davResourceType holds just enough of DAV:resourcetype to tell a
// collection (directory) apart from a regular file: a <d:collection/>
// child is present for directories and absent for files.
type davResourceType struct {
	Collection *struct{} `xml:"collection"`
}

// IsCollection reports whether this resource is a WebDAV collection
// (directory), which listFilesWithTag must exclude per spec.md §6/§9.
func (p davProp) IsCollection() bool {
	return p.ResourceType.Collection != nil
}
