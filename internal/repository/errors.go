// Package repository holds the MySQL data access for tours, bookings and
// the site content tables. Callers distinguish failure cases through the
// sentinel errors below; anything else is a wrapped driver error.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrTourNotFound        = errors.New("tour not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrGalleryNotFound     = errors.New("gallery image not found")
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrContactNotFound     = errors.New("contact not found")
	ErrSubscriberNotFound  = errors.New("subscriber not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrSlugExists  = errors.New("slug already exists")
	ErrEmailExists = errors.New("email already exists")

	// ErrConflict is returned when a row cannot be removed because other
	// rows still reference it, such as a tour with bookings.
	ErrConflict = errors.New("conflict")
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }
func isReferenced(err error) bool { return mysqlErrNumber(err) == mysqlRowIsReferenced }
