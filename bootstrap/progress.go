package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
)

// progress shows a spinner on stderr while files are processed. The spinner
// stays silent when stderr is not a terminal. A nil progress is a no-op.
type progress struct {
	s     *spinner.Spinner
	total int
}

func newProgress(enabled bool, total int) *progress {
	if !enabled {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = " Processing log files..."
	s.Start()
	return &progress{s: s, total: total}
}

func (p *progress) file(n int, path string) {
	if p == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" Processing %s (%d/%d)", filepath.Base(path), n, p.total)
	p.s.Unlock()
}

func (p *progress) stop() {
	if p == nil {
		return
	}
	p.s.Stop()
}
