package models

import "errors"

var (
	// ErrInvalidSymbol is returned when input cannot be normalized to a 5-digit code
	ErrInvalidSymbol = errors.New("invalid stock symbol")

	// ErrNoDataForSymbol is returned when the quote feed has no entry for a symbol
	ErrNoDataForSymbol = errors.New("no data available for symbol")

	// ErrSymbolNotFound is returned when a company name lookup finds nothing
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrLookupUnavailable is returned when a company name lookup is requested
	// but no AI provider is configured
	ErrLookupUnavailable = errors.New("symbol lookup unavailable")

	// ErrFetch wraps transport failures and non-2xx responses
	ErrFetch = errors.New("fetch failed")

	// ErrGeneration wraps AI provider failures
	ErrGeneration = errors.New("generation failed")
)
