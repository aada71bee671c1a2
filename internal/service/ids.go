package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// orderRefCharset leaves out I, O, 0 and 1.
const orderRefCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderID returns ORD-<unix millis>-<6 random chars>.
func NewOrderID(now time.Time) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ORD-%d-%06d", now.UnixMilli(), now.Nanosecond()%1000000)
	}
	for i := range b {
		b[i] = orderRefCharset[int(b[i])%len(orderRefCharset)]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), b)
}

func NewCustomerID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
