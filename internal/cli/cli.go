// Package cli implements the terminal commands: browsing a catalog list and
// reading a single document.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/mrlokans/shelfstream/internal/download"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// Dependencies are bound into every command's Run method.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Catalogs  workspace.Catalogs
	Downloads *download.Manager

	// Interactive reports whether Stdout is a terminal; progress is redrawn
	// in place only then.
	Interactive bool
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Browse BrowseCmd `cmd:"" help:"Browse a catalog list page by page"`
	Read   ReadCmd   `cmd:"" help:"Download a document and report its page count"`
}

// Main represents the command-line program.
type Main struct {
	Catalogs  workspace.Catalogs
	Downloads *download.Manager
}

func NewMain(catalogs workspace.Catalogs, downloads *download.Manager) *Main {
	if downloads == nil {
		downloads = download.NewManager()
	}
	return &Main{Catalogs: catalogs, Downloads: downloads}
}

// Run parses args and executes the selected command.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:         ctx,
		Stdout:      stdout,
		Stderr:      stderr,
		Catalogs:    m.Catalogs,
		Downloads:   m.Downloads,
		Interactive: isTerminal(stdout),
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("shelfstream"),
		kong.Description("Browse public-domain audiobooks and ebooks."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'shelfstream --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
