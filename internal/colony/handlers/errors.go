package handlers

import (
	stderrors "errors"

	"colony-server/internal/colony"
	"colony-server/internal/session"
	"colony-server/internal/shared/errors"
)

// translate maps engine and session errors onto application error types.
func translate(message string, err error) error {
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return errors.NotFound("colony not found")
	case stderrors.Is(err, session.ErrTooManySessions):
		return errors.WrapExternal("colony capacity reached", err)
	case stderrors.Is(err, colony.ErrUnknownModule),
		stderrors.Is(err, colony.ErrUnknownBiome),
		stderrors.Is(err, colony.ErrInvalidCell):
		return errors.WrapValidation(message, err)
	case stderrors.Is(err, colony.ErrCellOccupied),
		stderrors.Is(err, colony.ErrInsufficientResources),
		stderrors.Is(err, colony.ErrColonyFailed):
		return errors.WrapConflict(message, err)
	case stderrors.Is(err, colony.ErrCoolingDown):
		var cd *colony.CooldownError
		if stderrors.As(err, &cd) {
			return errors.WrapRateLimited(message, err, cd.Remaining)
		}
		return errors.WrapRateLimited(message, err, 0)
	default:
		return errors.WrapInternal(message, err)
	}
}
