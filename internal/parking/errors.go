package parking

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrSpotOccupied     = errors.New("spot occupied")
	ErrNoActiveTicket   = errors.New("no active ticket")
	ErrAlreadyParked    = errors.New("vehicle already parked")
	ErrIncompatibleSpot = errors.New("spot not compatible with vehicle class")
)
