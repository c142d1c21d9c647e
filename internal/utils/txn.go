package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTransactionID returns a merchant-side transaction identifier for
// gateways that require one when the caller does not supply it. Date prefix
// keeps identifiers sortable in gateway dashboards; the uuid suffix makes
// collisions a non-concern.
func GenerateTransactionID() string {
	now := time.Now().UTC()
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("txn-%s-%s", now.Format("20060102-150405"), suffix)
}
