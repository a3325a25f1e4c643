package exception

import "github.com/yanun0323/errors"

var (
	ErrRingFull      = errors.New("record ring full")
	ErrPoolExhausted = errors.New("book pool exhausted")
	ErrIndexFull     = errors.New("symbol index full")
	ErrUnknownSymbol = errors.New("unknown symbol")
)
