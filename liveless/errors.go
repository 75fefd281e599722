package liveless

import (
	"errors"
)

var (
	// ErrDisabled indicates that neither enable_gocentral nor
	// enable_liveless is set.
	ErrDisabled = errors.New("liveless: disabled by configuration")

	// ErrRefused indicates that the capability gate found a live session.
	ErrRefused = errors.New("liveless: refused, console holds a live session")

	// ErrNoRedirect indicates that neither redirect_ip nor an external
	// address is available.
	ErrNoRedirect = errors.New("liveless: no redirect target")
)
