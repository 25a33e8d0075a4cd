package metadata

import (
	"context"
	"errors"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

// ChainProvider asks each provider in turn and returns the first cover found.
// It reports invalidData only when every provider answered that it has no
// cover; otherwise the first other failure is returned so the lookup is
// retried later.
type ChainProvider []CoverProvider

func (c ChainProvider) FindCover(ctx context.Context, query string) (string, error) {
	var failure error
	for _, p := range c {
		coverURL, err := p.FindCover(ctx, query)
		if err == nil && coverURL != "" {
			return coverURL, nil
		}
		if err != nil && !errors.Is(err, catalog.ErrInvalidData) && failure == nil {
			failure = err
		}
		if ctx.Err() != nil {
			if failure == nil {
				failure = ctx.Err()
			}
			break
		}
	}
	if failure != nil {
		return "", failure
	}
	return "", &catalog.Error{Kind: catalog.KindInvalidData, Op: "cover.chain", Err: errNoCover}
}
