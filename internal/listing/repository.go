package listing

import "context"

// Repository is the persisted listing snapshot, keyed by ListingID.
type Repository interface {
	// InsertIfAbsent stores l unless a listing with the same ListingID
	// exists. It reports whether a row was created and, if so, sets l.ID
	// and l.CreatedAt. An existing row is left untouched.
	InsertIfAbsent(ctx context.Context, l *Listing) (bool, error)
	GetByListingID(ctx context.Context, listingID int64) (*Listing, error)
	List(ctx context.Context) ([]Listing, error)
	Delete(ctx context.Context, listingID int64) error
}
