package docsops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a record identifier. The service emits string ids for documents and
// numeric ids for notifications; both decode into the same canonical string.
type ID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric-looking ids as numbers so round trips keep shape.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Document statuses and processing values used by the dashboard.
const (
	StatusDeleted  = "deleted"
	StatusSigned   = "signed"
	StatusUploaded = "uploaded"

	ProcessingDone = "done"
)

// Document mirrors an entry of /documents/list and /documents/search.
type Document struct {
	ID               ID     `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	Processing       string `json:"processing"`
	SensitivityLevel string `json:"sensitivity_level"`
	StoragePath      string `json:"storage_path"`
	MimeType         string `json:"mime_type"`
	UpdateAt         string `json:"update_at"`
	CreatedAt        string `json:"created_at"`
}

// IsDeleted reports whether the document was soft-deleted.
func (d Document) IsDeleted() bool {
	return strings.EqualFold(strings.TrimSpace(d.Status), StatusDeleted)
}

// DisplayStatus condenses status and processing into the label the dashboard shows.
func (d Document) DisplayStatus() string {
	switch strings.ToLower(strings.TrimSpace(d.Status)) {
	case StatusDeleted:
		return "Deleted"
	case StatusSigned:
		return "Signed"
	case StatusUploaded:
		if strings.EqualFold(strings.TrimSpace(d.Processing), ProcessingDone) {
			return "Processed"
		}
		return "Processing"
	default:
		return "Unsigned"
	}
}

// Sensitivity returns the normalized sensitivity label.
func (d Document) Sensitivity() string {
	switch strings.ToUpper(strings.TrimSpace(d.SensitivityLevel)) {
	case "PUBLIC":
		return "Public"
	case "INTERNAL":
		return "Internal"
	case "CONFIDENTIAL":
		return "Confidential"
	case "RESTRICTED":
		return "Restricted"
	default:
		return "Unclassified"
	}
}

// IsRisk reports whether the document carries a confidential classification.
func (d Document) IsRisk() bool {
	return d.Sensitivity() == "Confidential"
}

// ParsedUpdatedAt returns update_at, falling back to created_at.
func (d Document) ParsedUpdatedAt() time.Time {
	if t := parseTime(d.UpdateAt); !t.IsZero() {
		return t
	}
	return parseTime(d.CreatedAt)
}

// Notification states.
const (
	// NotificationSent marks a notification the user has not read yet.
	NotificationSent = "sent"
	NotificationRead = "read"
)

// Notification mirrors an entry of /documents/notifications.
type Notification struct {
	ID           ID     `json:"id"`
	Processing   string `json:"processing"`
	Notification string `json:"notification"`
	CreatedAt    string `json:"created_at"`
}

// Unread reports whether the notification is still in the sent state.
func (n Notification) Unread() bool {
	return n.Processing == NotificationSent
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (n Notification) ParsedCreatedAt() time.Time {
	return parseTime(n.CreatedAt)
}

// CountUnread returns how many notifications are still unread.
func CountUnread(items []Notification) int {
	count := 0
	for _, n := range items {
		if n.Unread() {
			count++
		}
	}
	return count
}

// DashboardStats mirrors the counters returned by /documents/stats.
type DashboardStats struct {
	NewDocumentsThisWeek int `json:"newDocumentsThisWeek"`
	PendingApproval      int `json:"pendingApproval"`
	RiskDocuments        int `json:"riskDocuments"`
	UnprocessedDocuments int `json:"unprocessedDocuments"`
}

// FolderStats is the opaque object returned by /documents/folder-stats.
// Keys are category identifiers; values are passed through untouched.
type FolderStats map[string]any

// Counts extracts the numeric entries, ignoring nested or non-numeric values.
func (f FolderStats) Counts() map[string]float64 {
	out := make(map[string]float64, len(f))
	for key, value := range f {
		switch v := value.(type) {
		case float64:
			out[key] = v
		case json.Number:
			if n, err := v.Float64(); err == nil {
				out[key] = n
			}
		}
	}
	return out
}

// Envelope payloads. Each endpoint has exactly one schema; pointer fields let
// the decoder tell a missing key from an empty value.

type documentsPayload struct {
	Data *struct {
		Documents *[]Document `json:"documents"`
	} `json:"data"`
}

type notificationsPayload struct {
	Data *struct {
		Notifications *[]Notification `json:"notifications"`
	} `json:"data"`
}

type statsPayload struct {
	Data *DashboardStats `json:"data"`
}

type folderStatsPayload struct {
	Data *FolderStats `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
