package notify

import (
	"crypto/tls"
)

// Options are options for the deferred notification queue.
type Options struct {
	// URL encodes how we'll connect to the queue.
	URL string

	// TLSConfig needed to connect to the queue (optional).
	TLSConfig *tls.Config
}
