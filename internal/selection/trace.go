package selection

import (
	"fmt"
	"io"
)

// WriteTrace prints one block per group: the selected identifier marked
// with "* " followed by the rejected candidates. Groups emptied by the
// cascade are reported explicitly so that no group disappears silently.
func WriteTrace(w io.Writer, groups []GroupOutcome) error {
	for _, g := range groups {
		if g.Selected != "" {
			if _, err := fmt.Fprintf(w, "* %s\n", g.Selected); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "- no candidate survived for %s\n", g.Key); err != nil {
				return err
			}
		}
		if len(g.Candidates) < 2 {
			continue
		}
		for _, id := range g.Rejected() {
			if _, err := fmt.Fprintln(w, id); err != nil {
				return err
			}
		}
	}
	return nil
}
