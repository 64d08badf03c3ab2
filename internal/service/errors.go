package service

import "errors"

var (
	// ErrRoundFinished rejects score mutation on a finished round.
	ErrRoundFinished = errors.New("round is finished and read-only")

	// ErrUnknownHole rejects a hole number absent from the catalog.
	ErrUnknownHole = errors.New("hole not in course catalog")

	// ErrNoCurrentRound means no round is selected for play.
	ErrNoCurrentRound = errors.New("no current round")

	// ErrNoConflict means a resolution was requested with nothing pending.
	ErrNoConflict = errors.New("no sync conflict pending")

	// ErrSyncInFlight guards against re-entrant pushes of the same round.
	ErrSyncInFlight = errors.New("sync already in flight for round")

	// ErrRemoteDelete wraps a failed best-effort remote deletion. The local
	// delete has already happened; the round may reappear after the next
	// reconciliation.
	ErrRemoteDelete = errors.New("remote delete failed")
)
