// package repositories provides persistence layer implementations for the panel.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/tekx/internal/shared"
)

// notFound maps [sql.ErrNoRows] to [shared.ErrNotFound] and wraps everything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}
