package domain

import "context"

// Transactor runs fn inside one storage transaction. Repositories called with the
// context passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
