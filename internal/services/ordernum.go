package services

import (
	"fmt"
	"math/rand"
	"time"
)

const orderNoPrefix = "TDR"

// NewOrderNo builds an externally visible order number:
// prefix + second timestamp + nanosecond fraction + 3 random digits.
// The nanosecond fraction keeps tight-loop generation distinct; the commit
// path still regenerates on the rare UNIQUE collision.
func NewOrderNo() string {
	now := time.Now()
	return fmt.Sprintf("%s%s%09d%03d",
		orderNoPrefix,
		now.Format("20060102150405"),
		now.Nanosecond(),
		rand.Intn(1000))
}
