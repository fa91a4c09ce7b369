package shipment

import (
	"crypto/rand"
	"math/big"
)

const (
	trackingIDPrefix   = "TRK-"
	trackingIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingIDLength   = 6

	// MaxTrackingIDAttempts bounds the generate-and-insert retries.
	MaxTrackingIDAttempts = 5
)

// NewTrackingID returns a random code such as TRK-7QX2MB.
func NewTrackingID() (string, error) {
	buf := make([]byte, trackingIDLength)
	limit := big.NewInt(int64(len(trackingIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = trackingIDAlphabet[n.Int64()]
	}
	return trackingIDPrefix + string(buf), nil
}
