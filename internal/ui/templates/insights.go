package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"voicebank/internal/models"
)

// InsightList renders the #insights-content fragment patched in over SSE.
func InsightList(insights []models.Insight) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="insights-content">`); err != nil {
			return err
		}
		if len(insights) == 0 {
			if _, err := io.WriteString(w, `<p class="empty">No insights available yet.</p></div>`); err != nil {
				return err
			}
			return nil
		}

		if _, err := io.WriteString(w, `<ul class="insights">`); err != nil {
			return err
		}
		for _, in := range insights {
			_, err := fmt.Fprintf(w, `<li class="insight priority-%s" data-type="%s">%s</li>`,
				templ.EscapeString(string(in.Priority)),
				templ.EscapeString(string(in.Type)),
				templ.EscapeString(in.Message),
			)
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></div>`)
		return err
	})
}
