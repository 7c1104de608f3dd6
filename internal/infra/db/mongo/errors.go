package mongo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"leasehub/internal/domain/shared/errs"
)

const (
	writeConflictCode = 112
	emailIndexName    = "email_unique"
)

// writeError maps driver write failures onto the error kinds. Lost races
// inside a transaction surface as errs.ErrConcurrentUpdate.
func writeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConflict(err) {
		return fmt.Errorf("%s: %w", op, errs.ErrConcurrentUpdate)
	}
	return fmt.Errorf("%s: %w", op, errs.Storage(err))
}

// readError maps ErrNoDocuments onto notFound.
func readError(op string, err, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, errs.Storage(err))
}

func isConflict(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}

func isEmailTaken(err error) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), emailIndexName)
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
