package repositories

import (
	"database/sql"
	"errors"

	"onlineticket/internal/domain"
)

func notFound(resource string) error {
	return domain.NotFoundError{Resource: resource}
}

// mapNoRows turns sql.ErrNoRows into a NotFoundError and passes other errors through.
func mapNoRows(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}
