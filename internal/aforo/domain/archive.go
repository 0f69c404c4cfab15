package domain

import (
	"strings"
	"time"

	"aduanas_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Archive marks the case archived. The repository flips the paired worksheet
// in the same transaction; the returned entry is written on the worksheet's
// log path per the pairing rule.
func Archive(c Case, actor string, at time.Time) (Case, UpdateEntry, error) {
	return setArchived(c, true, actor, at)
}

// Restore reverses Archive for the case and its paired worksheet.
func Restore(c Case, actor string, at time.Time) (Case, UpdateEntry, error) {
	return setArchived(c, false, actor, at)
}

func setArchived(c Case, archived bool, actor string, at time.Time) (Case, UpdateEntry, error) {
	if strings.TrimSpace(actor) == "" {
		return Case{}, UpdateEntry{}, apperr.Validation("actor identity is required")
	}
	if c.IsArchived == archived {
		if archived {
			return Case{}, UpdateEntry{}, apperr.Validation("case is already archived")
		}
		return Case{}, UpdateEntry{}, apperr.Validation("case is not archived")
	}

	old := c.IsArchived
	c.IsArchived = archived
	c.UpdatedAt = at

	entry := UpdateEntry{
		Field:     "isArchived",
		OldValue:  boolValue(old),
		NewValue:  boolValue(archived),
		UpdatedBy: actor,
		At:        at,
	}
	return c, entry, nil
}

// DuplicateAndRetire clones a case under a fresh NE and retires the original.
// The fresh case starts with every track at its initial value and carries an
// executive comment recording the duplication reason and source NE. The
// original is marked TRASLADADO and archived. The two returned entries
// reference each other's NE, one for each side's log path.
func DuplicateAndRetire(orig Case, newNE string, newWorksheetID uuid.UUID, reason, actor string, at time.Time) (retired, fresh Case, origEntry, freshEntry UpdateEntry, err error) {
	if strings.TrimSpace(actor) == "" {
		err = apperr.Validation("actor identity is required")
		return
	}
	if strings.TrimSpace(newNE) == "" {
		err = apperr.Validation("a new NE is required")
		return
	}
	if strings.TrimSpace(reason) == "" {
		err = apperr.Validation("a duplication reason is required")
		return
	}
	if strings.TrimSpace(newNE) == orig.NE {
		err = apperr.Validation("the new NE must differ from the original")
		return
	}

	newNE = strings.TrimSpace(newNE)
	reason = strings.TrimSpace(reason)

	fresh = NewCase(newNE, newWorksheetID, at)
	fresh.ExecutiveComments = []string{"Duplicado desde " + orig.NE + ": " + reason}

	retired = orig
	oldDigitacion := retired.DigitacionStatus
	retired.setStatus(TrackDigitacion, DigitacionTrasladado, LastUpdateInfo{By: actor, At: at})
	retired.IsArchived = true
	retired.UpdatedAt = at

	origEntry = UpdateEntry{
		Field:     string(TrackDigitacion),
		OldValue:  oldDigitacion,
		NewValue:  DigitacionTrasladado,
		Comment:   "Caso trasladado a " + newNE + ": " + reason,
		UpdatedBy: actor,
		At:        at,
	}
	freshEntry = UpdateEntry{
		Field:     TagCreation,
		NewValue:  newNE,
		Comment:   "Caso duplicado desde " + orig.NE,
		UpdatedBy: actor,
		At:        at,
	}
	return retired, fresh, origEntry, freshEntry, nil
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
