package engine

import (
	"fmt"
	"strings"

	"github.com/okian/wakepoint/internal/domain/model"
)

// Summarize composes a one-paragraph digest of the counts and the top point.
func Summarize(top []model.Point, counts model.Counts) string {
	total := counts.Total()
	if total == 0 {
		return "No decision points were identified. The track may be too short or too steady for the current sensitivity."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Identified %d decision points (%d strategic, %d performance, %d crossings, %d mark roundings, %d missed opportunities); %d high-impact.",
		total, counts.Strategic, counts.Performance, counts.Cross, counts.Mark, counts.Missed, len(top))
	if len(top) > 0 {
		p := top[0]
		fmt.Fprintf(&b, " Most consequential: %s at %s (impact %.1f).",
			p.Description, p.Time.Format("15:04:05"), p.ImpactScore)
	}
	return b.String()
}
