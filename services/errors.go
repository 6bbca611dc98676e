package services

import "errors"

// Shared service-level errors, mapped to HTTP statuses in the handlers.
var (
	// Not found
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")

	// Validation
	ErrPlayerNameRequired  = errors.New("player name is required")
	ErrMatchSamePlayer     = errors.New("a player cannot play against themselves")
	ErrMatchPlayerNotFound = errors.New("one or both referenced players do not exist")
	ErrMatchRoundRequired  = errors.New("knockout matches require a round")
	ErrMatchRoundForbidden = errors.New("group matches cannot have a round")
	ErrMatchInvalidPhase   = errors.New("invalid match phase")
	ErrScoresEqual         = errors.New("scores cannot be equal - there must be a winner")
	ErrScoreNegative       = errors.New("scores cannot be negative")

	// Business rules
	ErrMatchAlreadyCompleted      = errors.New("match is already completed")
	ErrMatchDuplicateGroupPairing = errors.New("a match between these players already exists in the group phase")
	ErrNotEnoughPlayers           = errors.New("at least 2 players are required to generate matches")
	ErrGroupAlreadyGenerated      = errors.New("group matches have already been generated")

	// Avatars
	ErrAvatarStorageUnavailable = errors.New("avatar storage is not configured")
	ErrUnsupportedAvatarType    = errors.New("unsupported avatar content type")
)
