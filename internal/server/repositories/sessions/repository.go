package sessions

import "context"

// Repository is the session revocation ledger. A token is usable iff its
// signature is active here: issuing a token activates the signature,
// logging out deactivates it. The ledger never decodes tokens; it only
// sees signature strings.
type Repository interface {
	// Activate records that signature belongs to a live session of userID.
	// Activating an already-active signature is a no-op.
	Activate(ctx context.Context, userID, signature string) error

	// IsActive reports whether the signature belongs to a live session.
	IsActive(ctx context.Context, signature string) (bool, error)

	// Deactivate ends the session. Deactivating an unknown signature is
	// not an error.
	Deactivate(ctx context.Context, signature string) error
}
