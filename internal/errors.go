package internal

import "errors"

var (
	ErrDecode            = errors.New("decode failure")
	ErrFieldExtraction   = errors.New("field extraction failure")
	ErrEmptyResult       = errors.New("no usable nodes")
	ErrNotNodeFile       = errors.New("not a node file")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)
