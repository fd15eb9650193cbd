package domain

import "errors"

var (
	// ErrQueryRequired indicates the request carried no query
	ErrQueryRequired = errors.New("query is required")
	// ErrQueryNotText indicates the query was set to a non-string value
	ErrQueryNotText = errors.New("query must be a string")
	// ErrNullBody indicates the request body was the JSON literal null
	ErrNullBody = errors.New("request body is null")
)
