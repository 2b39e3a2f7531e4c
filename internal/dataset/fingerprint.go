package dataset

import (
	"io"

	"github.com/zeebo/xxh3"
)

// Fingerprint consumes r and returns an xxh3 hash of its contents. The
// report engine uses it as the cache epoch for the loaded table: a changed
// source produces a different fingerprint and forces a reload.
func Fingerprint(r io.Reader) (uint64, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
