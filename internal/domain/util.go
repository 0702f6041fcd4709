package domain

import (
	"context"
	"errors"

	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/xcontext"
)

// withinTransaction runs fn in a transaction. The closure returns errorx errors as they are, any
// other error (begin, commit) is logged and reported as errorx.Unknown.
func withinTransaction(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	err := xcontext.WithinTransaction(ctx, fn)
	if err == nil {
		return nil
	}

	var errx errorx.Error
	if errors.As(err, &errx) {
		return err
	}

	xcontext.Logger(ctx).Errorf("Cannot %s: %v", action, err)
	return errorx.Unknown
}
