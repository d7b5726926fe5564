package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Calendar turns instants into business dates in the club's time zone.
type Calendar struct {
	Location *time.Location
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Calendar) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Date returns the business date of t.
func (c Calendar) Date(t time.Time) string {
	return t.In(c.loc()).Format(dateLayout)
}

// Weekday returns the lower-case English weekday of t in the business zone.
func (c Calendar) Weekday(t time.Time) string {
	return strings.ToLower(t.In(c.loc()).Weekday().String())
}

// Bounds returns [start, end) of a business date in UTC.
func (c Calendar) Bounds(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, date, c.loc())
	if err != nil {
		return time.Time{}, time.Time{}, invalid("date %q must be YYYY-MM-DD", date)
	}
	return start.UTC(), start.AddDate(0, 0, 1).UTC(), nil
}

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
