package paymaster

import "errors"

var (
	// ErrUnauthorizedCaller rejects validation/settlement hooks invoked by
	// anything but the entry point. This signals a wiring error, not a user
	// facing condition.
	ErrUnauthorizedCaller = errors.New("caller is not the entry point")

	// ErrUnauthorizedOwner rejects admin operations invoked by a non-owner.
	ErrUnauthorizedOwner = errors.New("caller is not the owner")

	// ErrSignatureRecovery marks a signature that could not be recovered at
	// all, as opposed to one that recovered to an unauthorized sponsor.
	ErrSignatureRecovery = errors.New("sponsor signature recovery failed")

	// ErrInsufficientSponsorFunds aborts validation when an authenticated
	// sponsor cannot cover the reservation.
	ErrInsufficientSponsorFunds = errors.New("sponsor deposit cannot cover reservation")

	// ErrInsufficientFunds rejects a withdrawal exceeding the sponsor balance.
	ErrInsufficientFunds = errors.New("withdrawal exceeds sponsor balance")

	// ErrWithdrawInProgress rejects a withdrawal re-entered while the fund
	// release for an earlier one is still in flight.
	ErrWithdrawInProgress = errors.New("withdrawal already in progress")

	// ErrInvalidContext marks a settlement context this paymaster did not
	// produce. The entry point broke the protocol; do not retry.
	ErrInvalidContext = errors.New("malformed sponsorship context")

	// ErrInvalidAmount rejects non-positive deposit or withdrawal amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)
