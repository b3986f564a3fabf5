package app

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/five82/docwatch/internal/engine"
	"github.com/five82/docwatch/internal/session"
	"github.com/five82/docwatch/internal/state"
)

// runOnce signs in, performs the initial load and prints a summary.
func runOnce(sup *engine.Supervisor, signIn func() (*session.User, error), out io.Writer) error {
	user, err := signIn()
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	loadErr := sup.SetUser(user)
	printSummary(out, user, sup.Snapshot())
	return loadErr
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
)

// printSummary writes a plain-text overview of one dashboard snapshot.
func printSummary(w io.Writer, user *session.User, dash state.Dashboard) {
	fmt.Fprintln(w, headingColor.Sprintf("docwatch · %s", user.DisplayName()))

	if dash.Stats.Loaded {
		s := dash.Stats.Data
		fmt.Fprintf(w, "%s %d  %s %d  %s %d  %s %d\n",
			labelColor.Sprint("New this week:"), s.NewDocumentsThisWeek,
			labelColor.Sprint("Pending:"), s.PendingApproval,
			labelColor.Sprint("Risk:"), s.RiskDocuments,
			labelColor.Sprint("Unprocessed:"), s.UnprocessedDocuments,
		)
	}

	docs := dash.ActiveDocuments()
	byStatus := map[string]int{}
	for _, doc := range docs {
		byStatus[doc.DisplayStatus()]++
	}
	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	fmt.Fprintf(w, "%s %d\n", labelColor.Sprint("Documents:"), len(docs))
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-12s %d\n", s, byStatus[s])
	}

	if unread := dash.UnreadCount(); unread > 0 {
		fmt.Fprintln(w, warnColor.Sprintf("%d unread notifications", unread))
	} else {
		fmt.Fprintln(w, labelColor.Sprint("No unread notifications"))
	}

	if err := dash.LastError(); err != nil {
		fmt.Fprintln(w, errColor.Sprintf("error: %v", err))
	}
}
