package services

import "errors"

var (
	ErrParsingFailed    = errors.New("failed to parse statement")
	ErrRateLookupFailed = errors.New("exchange rate lookup failed")
	ErrSuperseded       = errors.New("statement superseded by a newer upload")
	ErrReportNotFound   = errors.New("no report for this session")
)
