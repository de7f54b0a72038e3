package integrations

import (
	"errors"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
)

// toAppErr maps provider sentinels onto response errors. Anything already
// an *apperr.Error passes through.
func toAppErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, integrations.ErrUnknownProvider):
		return apperr.NotFound("Unknown integration.")
	case errors.Is(err, integrations.ErrNotConfigured):
		return apperr.Conflict("This integration is not configured.")
	case errors.Is(err, integrations.ErrOAuthUnavailable):
		return apperr.Conflict("Set google_client_id and google_client_secret to connect Gmail.")
	case errors.Is(err, integrations.ErrBadState):
		return apperr.Validation("The Google sign-in link expired or was already used. Start again.", nil)
	}
	return err
}
