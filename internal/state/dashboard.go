package state

import (
	"time"

	"github.com/five82/docwatch/internal/docsops"
)

// Dashboard is the composite view of every synchronized resource.
type Dashboard struct {
	Documents     Resource[[]docsops.Document]
	Stats         Resource[docsops.DashboardStats]
	Folders       Resource[docsops.FolderStats]
	Notifications Resource[[]docsops.Notification]
}

// UnreadCount returns the number of unread notifications.
func (d Dashboard) UnreadCount() int {
	return docsops.CountUnread(d.Notifications.Data)
}

// HasUnread reports whether any notification is still unread.
func (d Dashboard) HasUnread() bool {
	return d.UnreadCount() > 0
}

// ActiveDocuments returns the documents that are not soft-deleted.
func (d Dashboard) ActiveDocuments() []docsops.Document {
	out := make([]docsops.Document, 0, len(d.Documents.Data))
	for _, doc := range d.Documents.Data {
		if !doc.IsDeleted() {
			out = append(out, doc)
		}
	}
	return out
}

// IsOffline is true when the primary resource has failed repeatedly.
func (d Dashboard) IsOffline() bool {
	return d.Documents.IsOffline()
}

// Loading reports whether any resource is in an explicit load.
func (d Dashboard) Loading() bool {
	return d.Documents.Loading || d.Stats.Loading || d.Folders.Loading || d.Notifications.Loading
}

// LastError returns the first recorded error, documents first.
func (d Dashboard) LastError() error {
	for _, err := range []error{d.Documents.LastError, d.Stats.LastError, d.Folders.LastError, d.Notifications.LastError} {
		if err != nil {
			return err
		}
	}
	return nil
}

// LastUpdated returns the most recent update across resources.
func (d Dashboard) LastUpdated() time.Time {
	latest := d.Documents.LastUpdated
	for _, t := range []time.Time{d.Stats.LastUpdated, d.Folders.LastUpdated, d.Notifications.LastUpdated} {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}
