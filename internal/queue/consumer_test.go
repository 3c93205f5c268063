package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatStatusUpdateEmail(t *testing.T) {
	ev := DocumentStatusEvent{
		DocumentID:   7,
		DocumentName: "site-report.pdf",
		ProjectCode:  "P1",
		NewStatus:    "Approved",
		ActingUser:   "Alice Johnson",
		Comment:      "lgtm",
		Version:      1,
		ESigned:      true,
		Participants: []string{"bob@x.com", "alice@x.com"},
		OccurredAt:   "2024-06-01T08:31:00Z",
	}
	text := FormatStatusUpdateEmail(ev)
	require.Contains(t, text, "site-report.pdf")
	require.Contains(t, text, "Approved")
	require.Contains(t, text, "Alice Johnson")
	require.Contains(t, text, "lgtm")
	require.Contains(t, text, "electronic signature")
	require.Contains(t, text, "bob@x.com, alice@x.com")
}

func TestFormatStatusUpdateEmail_OmitsEmptySections(t *testing.T) {
	text := FormatStatusUpdateEmail(DocumentStatusEvent{
		DocumentName: "plan.dwg",
		NewStatus:    "Commented",
		ActingUser:   "Dave",
		Version:      2,
	})
	require.NotContains(t, text, "Comment:")
	require.NotContains(t, text, "Recipients:")
	require.NotContains(t, text, "electronic signature")
	require.NotContains(t, text, "project")
}
