package model

import "errors"

var (
	// ErrDataUnavailable means no requested instrument produced usable data.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNoPriceFieldFound means the response has neither Adj Close nor Close.
	ErrNoPriceFieldFound = errors.New("no price field found")
	// ErrUnexpectedShape means the response layout cannot be matched to the request.
	ErrUnexpectedShape = errors.New("unexpected response shape")
	// ErrInvalidRequest means the run parameters are unusable.
	ErrInvalidRequest = errors.New("invalid request")
)
