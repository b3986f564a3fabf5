package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/docwatch/internal/docsops"
)

func sampleDocs() []docsops.Document {
	return []docsops.Document{
		{ID: "d1", Title: "Contract", Status: "uploaded", Processing: "queued", SensitivityLevel: "internal", UpdateAt: "2024-05-01T10:00:00Z"},
		{ID: "d2", Title: "Invoice", Status: "signed", Processing: "done", SensitivityLevel: "public"},
		{ID: "d3", Title: "Memo", Status: "uploaded", Processing: "done", StoragePath: "u1/memo.pdf"},
	}
}

func TestDocuments_SelfDiffIsUnchanged(t *testing.T) {
	docs := sampleDocs()
	report := Documents.Compare(docs, docs)
	assert.False(t, report.Changed())
	assert.False(t, Documents.Changed(docs, docs))
}

func TestDocuments_ReorderIsUnchanged(t *testing.T) {
	docs := sampleDocs()
	reordered := []docsops.Document{docs[2], docs[0], docs[1]}
	assert.False(t, Documents.Changed(docs, reordered))
}

func TestDocuments_AdditionAndRemoval(t *testing.T) {
	docs := sampleDocs()

	added := append(append([]docsops.Document(nil), docs...), docsops.Document{ID: "d4", Title: "New"})
	report := Documents.Compare(docs, added)
	require.True(t, report.Changed())
	assert.True(t, report.LengthChanged)
	assert.Equal(t, []string{"d4"}, report.Added)

	report = Documents.Compare(docs, docs[:2])
	require.True(t, report.Changed())
	assert.Equal(t, []string{"d3"}, report.Removed)
}

func TestDocuments_OffsettingAddAndRemoveIsChanged(t *testing.T) {
	docs := sampleDocs()
	swapped := []docsops.Document{docs[0], docs[1], {ID: "d9", Title: "Memo", Status: "uploaded", Processing: "done"}}

	report := Documents.Compare(docs, swapped)
	assert.False(t, report.LengthChanged)
	assert.Equal(t, []string{"d9"}, report.Added)
	assert.Equal(t, []string{"d3"}, report.Removed)
	assert.True(t, report.Changed())
}

func TestDocuments_OnlySignificantFieldsCount(t *testing.T) {
	docs := sampleDocs()

	cosmetic := append([]docsops.Document(nil), docs...)
	cosmetic[0].Description = "edited description"
	cosmetic[0].MimeType = "application/pdf"
	cosmetic[0].CreatedAt = "2020-01-01T00:00:00Z"
	assert.False(t, Documents.Changed(docs, cosmetic))

	significant := append([]docsops.Document(nil), docs...)
	significant[0].Processing = "done"
	report := Documents.Compare(docs, significant)
	assert.Equal(t, []string{"d1"}, report.Modified)
	assert.True(t, report.Changed())

	// input untouched
	assert.Equal(t, "queued", docs[0].Processing)
}

func TestDocuments_EveryNamedFieldIsSignificant(t *testing.T) {
	mutations := map[string]func(*docsops.Document){
		"processing":        func(d *docsops.Document) { d.Processing = "x" },
		"sensitivity_level": func(d *docsops.Document) { d.SensitivityLevel = "x" },
		"title":             func(d *docsops.Document) { d.Title = "x" },
		"status":            func(d *docsops.Document) { d.Status = "x" },
		"update_at":         func(d *docsops.Document) { d.UpdateAt = "x" },
		"storage_path":      func(d *docsops.Document) { d.StoragePath = "x" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			docs := sampleDocs()
			next := append([]docsops.Document(nil), docs...)
			mutate(&next[1])
			assert.True(t, Documents.Changed(docs, next))
		})
	}
}

func TestNotifications_Scenario(t *testing.T) {
	prev := []docsops.Notification{
		{ID: "1", Processing: "sent", Notification: "Contract signed"},
		{ID: "2", Processing: "read", Notification: "Welcome"},
	}
	same := []docsops.Notification{prev[1], prev[0]}
	assert.False(t, Notifications.Changed(prev, same))

	read := []docsops.Notification{
		{ID: "1", Processing: "read", Notification: "Contract signed", CreatedAt: "later"},
		prev[1],
	}
	report := Notifications.Compare(prev, read)
	assert.Equal(t, []string{"1"}, report.Modified)
}

func TestEmptySnapshots(t *testing.T) {
	assert.False(t, Documents.Changed(nil, []docsops.Document{}))
	assert.True(t, Documents.Changed(nil, sampleDocs()))
	assert.True(t, Documents.Changed(sampleDocs(), nil))
}

func TestStatsChanged(t *testing.T) {
	base := docsops.DashboardStats{NewDocumentsThisWeek: 1, PendingApproval: 2, RiskDocuments: 3, UnprocessedDocuments: 4}
	assert.False(t, StatsChanged(base, base))

	next := base
	next.RiskDocuments = 5
	assert.True(t, StatsChanged(base, next))
	assert.Equal(t, []string{"riskDocuments"}, Counters(StatsFields, base, next))
}

func TestFolderStatsChanged(t *testing.T) {
	a := docsops.FolderStats{"legal": float64(2), "meta": map[string]any{"x": float64(1)}}
	b := docsops.FolderStats{"meta": map[string]any{"x": float64(1)}, "legal": float64(2)}
	assert.False(t, FolderStatsChanged(a, b))

	c := docsops.FolderStats{"legal": float64(3), "meta": map[string]any{"x": float64(1)}}
	assert.True(t, FolderStatsChanged(a, c))
}
