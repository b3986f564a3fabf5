package diff

import "github.com/five82/docwatch/internal/docsops"

// Documents compares the fields shown in the document table.
var Documents = Schema[docsops.Document]{
	ID: func(d docsops.Document) string { return string(d.ID) },
	Fields: []Field[docsops.Document]{
		{Name: "processing", Value: func(d docsops.Document) any { return d.Processing }},
		{Name: "sensitivity_level", Value: func(d docsops.Document) any { return d.SensitivityLevel }},
		{Name: "title", Value: func(d docsops.Document) any { return d.Title }},
		{Name: "status", Value: func(d docsops.Document) any { return d.Status }},
		{Name: "update_at", Value: func(d docsops.Document) any { return d.UpdateAt }},
		{Name: "storage_path", Value: func(d docsops.Document) any { return d.StoragePath }},
	},
}

// Notifications compares read state and message text.
var Notifications = Schema[docsops.Notification]{
	ID: func(n docsops.Notification) string { return string(n.ID) },
	Fields: []Field[docsops.Notification]{
		{Name: "processing", Value: func(n docsops.Notification) any { return n.Processing }},
		{Name: "notification", Value: func(n docsops.Notification) any { return n.Notification }},
	},
}

// StatsFields are the dashboard counters.
var StatsFields = []Field[docsops.DashboardStats]{
	{Name: "newDocumentsThisWeek", Value: func(s docsops.DashboardStats) any { return s.NewDocumentsThisWeek }},
	{Name: "pendingApproval", Value: func(s docsops.DashboardStats) any { return s.PendingApproval }},
	{Name: "riskDocuments", Value: func(s docsops.DashboardStats) any { return s.RiskDocuments }},
	{Name: "unprocessedDocuments", Value: func(s docsops.DashboardStats) any { return s.UnprocessedDocuments }},
}

// StatsChanged reports whether any dashboard counter differs.
func StatsChanged(prev, next docsops.DashboardStats) bool {
	return len(Counters(StatsFields, prev, next)) > 0
}

// FolderStatsChanged reports whether the opaque folder counters differ.
func FolderStatsChanged(prev, next docsops.FolderStats) bool {
	return Value(prev, next)
}
