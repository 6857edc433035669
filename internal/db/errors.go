package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"party-trivia/internal/game"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// transientCodes are SQLSTATE values worth retrying the whole transaction
// for.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// classify maps driver errors onto the game sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, game.ErrNotFound),
		errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrStoreUnavailable),
		errors.Is(err, game.ErrEmptyBank),
		errors.Is(err, game.ErrAlreadySubmitted),
		errors.Is(err, game.ErrCodeTaken),
		errors.Is(err, game.ErrNameTaken),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", game.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if transientCodes[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %v", game.ErrStoreUnavailable, err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		pgconn.SafeToRetry(err) ||
		pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", game.ErrStoreUnavailable, err)
	}
	return err
}
