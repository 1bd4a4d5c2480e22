// internal/download/observer.go
package download

import (
	"fmt"
	"io"
	"sync"

	"github.com/vmunix/streamgrab/internal/backend"
)

// ConsoleObserver redraws a single progress line on w.
func ConsoleObserver(w io.Writer) Observer {
	var mu sync.Mutex
	return func(_ *Job, p backend.Progress) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "-- Speed: %s, Cursor: %s, Progress: %.2f%%\r",
			orNA(p.Speed), orNA(p.Cursor), p.Fraction*100)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
