package store

import (
	"context"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

// ListOptions controls pagination and filtering for contact listings.
type ListOptions struct {
	// Search filters by a case-insensitive substring match over the name
	// parts, nickname, and company. Empty means no filter.
	Search string
	Limit  int
	Offset int
}

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *contact.Contact) error
	// CreateBatch inserts every contact in a single transaction. Either all
	// rows land or none do.
	CreateBatch(ctx context.Context, cs []*contact.Contact) error
	GetByID(ctx context.Context, id string) (*contact.Contact, error)
	Update(ctx context.Context, c *contact.Contact) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]*contact.Contact, error)
	Count(ctx context.Context, search string) (int, error)
}
