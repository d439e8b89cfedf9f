package attendance

import "errors"

// Attendance domain errors
var (
	ErrEventNotFound    = errors.New("presence event not found")
	ErrInvalidDateRange = errors.New("from date must not be after to date")
	ErrDateRangeTooLong = errors.New("date range must not exceed 366 days")
)
