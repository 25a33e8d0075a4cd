package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/entities"
	"github.com/mrlokans/shelfstream/internal/pagination"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

// BrowseCmd is the "browse" subcommand.
type BrowseCmd struct {
	List  string `short:"l" default:"trending" enum:"trending,subject,search,ebooks,topic" help:"List to browse (trending, subject, search, ebooks, topic)"`
	Arg   string `short:"a" help:"Genre, title prefix, query or topic, depending on the list"`
	Pages int    `short:"n" default:"1" help:"Number of pages to fetch"`
}

func (c *BrowseCmd) Run(deps *Dependencies) error {
	spec := workspace.ListSpec{Kind: workspace.ListKind(c.List), Arg: c.Arg}
	ctrl, err := deps.Catalogs.NewController(spec)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	shown := 0
	for page := 0; page < c.Pages; page++ {
		res, err := ctrl.FetchNext(deps.Ctx)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", describeError(err))
			return err
		}
		if res.Outcome != pagination.OutcomeAppended {
			break
		}

		items := ctrl.Snapshot().Items
		for _, item := range items[shown:] {
			printItem(deps.Stdout, shown+1, item)
			shown++
		}
		if res.Exhausted {
			fmt.Fprintln(deps.Stdout, "(end of list)")
			break
		}
	}

	if shown == 0 {
		fmt.Fprintln(deps.Stdout, "Nothing found.")
	}
	return nil
}

func printItem(w io.Writer, n int, item entities.CatalogItem) {
	line := fmt.Sprintf("%3d. [%d] %s", n, item.ID, item.Title)
	if item.Author != "" {
		line += " by " + item.Author
	}
	fmt.Fprintln(w, line)
	if item.CoverURL != "" {
		fmt.Fprintf(w, "     cover: %s\n", item.CoverURL)
	}
	if item.DocumentURL != "" {
		fmt.Fprintf(w, "     read:  %s\n", item.DocumentURL)
	}
}

// describeError turns provider failures into a short hint for the user.
func describeError(err error) string {
	var perr *catalog.Error
	if !errors.As(err, &perr) {
		return err.Error()
	}
	switch perr.Kind {
	case catalog.KindInvalidData:
		return "no results"
	case catalog.KindRequestFailed:
		return "request failed, check your connection (" + perr.Error() + ")"
	case catalog.KindDecodingFailed:
		return "unexpected response from " + perr.Op
	default:
		return perr.Error()
	}
}
