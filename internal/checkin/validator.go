package checkin

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/rollcall/internal/common"
)

// Validate decides whether raw may be checked in right now.
//
// Rules are applied in order and stop at the first failure: empty code,
// unknown attendee, already present. The returned error is only set for
// lookup failures other than "not found".
func Validate(ctx context.Context, dir Lookup, raw string) (Result, error) {
	res := ValidateFormat(raw)
	if !res.Valid {
		return res, nil
	}

	a, err := dir.FindByCode(ctx, res.AttendeeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return invalid(CodeNotFound, MsgNotFound, nil), nil
		}
		return Result{}, err
	}

	if a.IsPresent() {
		return invalid(CodeAlreadyCheckedIn, AlreadyCheckedInMessage(a.Name), &a), nil
	}

	return valid(res.AttendeeID, a), nil
}
