package shortener

import "time"

// LinkRecord maps a generated token to the destination URL it redirects to.
// Records are immutable once stored.
type LinkRecord struct {
	Token          string
	DestinationURL string
	CreatedAt      time.Time
}
