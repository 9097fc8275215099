package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Idempotency keys are pure functions of operation identity: same
// inputs, same key, no randomness. Callers treat the output as an
// opaque token; the ledger's unique key column does the deduping.

// GameplayAccrualKey dedupes gameplay accrual on the slip id alone, so
// the accrual can be retried indefinitely without any caller-supplied
// token or coordination.
func GameplayAccrualKey(ratingSlipID uint) string {
	return digest(fmt.Sprintf("gameplay|slip|%d", ratingSlipID))
}

// ManualOpKey keys a staff-issued operation on (subject, actor, date,
// sequence). The explicit sequence lets one staff member issue several
// distinct operations per day; an accidental duplicate submission of
// the same form collapses onto the same key.
func ManualOpKey(subjectID, actorID uint, day time.Time, sequence int) string {
	return digest(fmt.Sprintf("manual|%d|%d|%s|%d",
		subjectID, actorID, day.UTC().Format("2006-01-02"), sequence))
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
