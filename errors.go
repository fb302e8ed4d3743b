package libemit

import (
	"net/url"

	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSourceClosed  = errors.New("source has been closed")
	ErrCannotConnect = errors.New("connection cannot be established")
	ErrTerminated    = errors.New("program exit")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

type ErrUnrecoverableDial struct {
	err error
	url url.URL
}

func (e ErrUnrecoverableDial) Error() string {
	return fmt.Sprintf("Unrecoverable dial error: %s to %s", e.err, e.url.String())
}

func (e ErrUnrecoverableDial) Unwrap() error { return e.err }

func WrapErrorUnrecoverableDial(err error, url url.URL) *ErrUnrecoverableDial {
	if err == nil {
		return nil
	}
	return &ErrUnrecoverableDial{
		err: err,
		url: url,
	}
}
