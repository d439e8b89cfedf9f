package geofence

import "errors"

var ErrInvalidCoordinate = errors.New("invalid coordinate")
