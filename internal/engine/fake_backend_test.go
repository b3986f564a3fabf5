package engine

import (
	"context"
	"sync"

	"github.com/five82/docwatch/internal/docsops"
)

// fakeBackend serves canned values and counts calls per operation.
type fakeBackend struct {
	mu            sync.Mutex
	documents     []docsops.Document
	stats         docsops.DashboardStats
	folders       docsops.FolderStats
	notifications []docsops.Notification
	documentsErr  error
	calls         map[string]int
	deleted       []docsops.ID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		documents: []docsops.Document{
			{ID: "d1", Title: "Contract", Status: "uploaded", Processing: "queued"},
			{ID: "d2", Title: "Invoice", Status: "signed", Processing: "done"},
		},
		stats:   docsops.DashboardStats{NewDocumentsThisWeek: 2, UnprocessedDocuments: 1},
		folders: docsops.FolderStats{"legal": float64(1), "finance": float64(1)},
		notifications: []docsops.Notification{
			{ID: "1", Processing: "sent", Notification: "Contract uploaded"},
			{ID: "2", Processing: "read", Notification: "Welcome"},
		},
		calls: map[string]int{},
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) setDocuments(docs []docsops.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = docs
}

func (f *fakeBackend) FetchDocuments(ctx context.Context) ([]docsops.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["documents"]++
	if f.documentsErr != nil {
		return nil, f.documentsErr
	}
	return append([]docsops.Document(nil), f.documents...), nil
}

func (f *fakeBackend) FetchDashboardStats(ctx context.Context) (docsops.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["stats"]++
	return f.stats, nil
}

func (f *fakeBackend) FetchFolderStats(ctx context.Context) (docsops.FolderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["folders"]++
	out := docsops.FolderStats{}
	for k, v := range f.folders {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) FetchNotifications(ctx context.Context) ([]docsops.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["notifications"]++
	return append([]docsops.Notification(nil), f.notifications...), nil
}

func (f *fakeBackend) SearchDocuments(ctx context.Context, query string) ([]docsops.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["search"]++
	return nil, nil
}

func (f *fakeBackend) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["mark_read"]++
	for i := range f.notifications {
		f.notifications[i].Processing = docsops.NotificationRead
	}
	return nil
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, id docsops.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	f.deleted = append(f.deleted, id)
	for i := range f.documents {
		if f.documents[i].ID == id {
			f.documents[i].Status = docsops.StatusDeleted
		}
	}
	return nil
}
