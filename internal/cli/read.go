package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/mrlokans/shelfstream/internal/download"
	"github.com/mrlokans/shelfstream/internal/utils"
)

// ReadCmd is the "read" subcommand.
type ReadCmd struct {
	URL    string `arg:"" help:"Document URL (PDF)"`
	Output string `short:"o" type:"path" help:"Save the downloaded document to this file or directory"`
}

func (c *ReadCmd) Run(deps *Dependencies) error {
	progress := &progressPrinter{deps: deps}
	session := deps.Downloads.Open(c.URL, download.WithListener(progress.update))
	defer deps.Downloads.Close(session.ID())

	if !session.Start(deps.Ctx) {
		return fmt.Errorf("download %s could not be started", session.URL())
	}
	if err := session.Wait(deps.Ctx); err != nil {
		// Interrupted: wait for the transfer to unwind.
		session.Cancel()
	}
	progress.finish()

	st := session.State()
	switch st.Status {
	case download.StatusLoaded:
		doc := st.Document
		fmt.Fprintf(deps.Stdout, "Loaded %s: %d pages, %s\n", session.URL(), doc.Pages, humanize.Bytes(uint64(len(doc.Data))))
		if c.Output != "" {
			out := c.Output
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, utils.DocumentFilename("", session.URL(), ".pdf"))
			}
			if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
				return fmt.Errorf("failed to save document: %w", err)
			}
			fmt.Fprintf(deps.Stdout, "Saved to %s\n", out)
		}
		return nil
	case download.StatusFailed:
		fmt.Fprintf(deps.Stderr, "error: %s\n", st.Reason)
		return errors.New(st.Reason)
	default:
		fmt.Fprintln(deps.Stderr, "download cancelled")
		return errors.New("download cancelled")
	}
}

// progressPrinter renders download progress. On a terminal the line is
// redrawn in place; otherwise only every quarter is printed.
type progressPrinter struct {
	deps *Dependencies

	mu      sync.Mutex
	drawn   bool
	quarter int
}

func (p *progressPrinter) update(st download.State) {
	if st.Status != download.StatusDownloading || st.Expected <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := int(st.Progress * 100)
	if p.deps.Interactive {
		fmt.Fprintf(p.deps.Stdout, "\rDownloading %3d%% (%s of %s)", pct,
			humanize.Bytes(uint64(st.Received)), humanize.Bytes(uint64(st.Expected)))
		p.drawn = true
		return
	}
	if q := pct / 25; q > p.quarter {
		p.quarter = q
		fmt.Fprintf(p.deps.Stdout, "Downloading %d%%\n", q*25)
	}
}

func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.deps.Stdout)
		p.drawn = false
	}
}
