package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"BenchBoard/internal/model"
	"BenchBoard/internal/recorder"
)

// FormatDigest formats a run's performance summary as a Telegram message.
// Only displayed instruments are listed, best performer first.
func FormatDigest(rm *model.RenderModel) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>BenchBoard</b> | %s → %s\n\n",
		rm.Start.Format(model.DateLayout), rm.End.Format(model.DateLayout)))

	shown := make(map[string]bool)
	for _, name := range rm.Display.Names() {
		shown[name] = true
	}
	sums := make([]model.ColumnSummary, 0, len(rm.Summaries))
	for _, s := range rm.Summaries {
		if shown[s.Label] {
			sums = append(sums, s)
		}
	}
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].Change > sums[j].Change })

	for _, s := range sums {
		b.WriteString(fmt.Sprintf("%s %s: <b>%+.2f%%</b> (low %+.1f%%, high %+.1f%%)\n",
			arrow(s.Change), html.EscapeString(s.Label), s.Change, s.Min, s.Max))
	}
	if len(sums) == 0 {
		b.WriteString("No instruments selected.\n")
	}

	for _, w := range rm.Warnings {
		b.WriteString(fmt.Sprintf("\n⚠️ %s", html.EscapeString(w.Message)))
	}
	return b.String()
}

// maxErrorRunes keeps alerts below Telegram's 4096 character limit even
// when every rune is HTML escaped.
const maxErrorRunes = 700

// FormatFailure formats a failed refresh. Long error text is truncated.
func FormatFailure(err error) string {
	text := []rune(err.Error())
	if len(text) > maxErrorRunes {
		text = append(text[:maxErrorRunes], '…')
	}
	return fmt.Sprintf("🚨 <b>BenchBoard refresh failed</b>\n\n%s", html.EscapeString(string(text)))
}

// FormatRuns lists recent pipeline runs.
func FormatRuns(runs []recorder.RunEvent) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		mark := "✅"
		if r.Status != recorder.StatusOK {
			mark = "❌"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s→%s %d cols %dms\n",
			mark, r.Timestamp.Format("2006-01-02 15:04"), r.Trigger, r.Start, r.End, r.Columns, r.DurationMs))
		if r.Error != "" {
			b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(r.Error)))
		}
	}
	return b.String()
}

func arrow(change float64) string {
	switch {
	case change > 0:
		return "🟢"
	case change < 0:
		return "🔴"
	default:
		return "⚪"
	}
}
