package swr

import "errors"

var (
	ErrClosed      = errors.New("swr: cache closed")
	ErrNotFound    = errors.New("swr: record not found")
	ErrFetchPanic  = errors.New("swr: fetch panicked")
	ErrNilFetcher  = errors.New("swr: nil fetch function")
	ErrStoreDecode = errors.New("swr: failed to decode stored record")
	ErrStoreEncode = errors.New("swr: failed to encode record")
)
