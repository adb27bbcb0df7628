package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// NumberGenerator produces a human readable order number. Uniqueness is
// enforced by the store; a collision surfaces as apperr.ErrConflict.
type NumberGenerator func(now time.Time) (string, error)

// GenerateNumber returns ORD-<unix millis>-<8 upper-case hex chars>.
func GenerateNumber(now time.Time) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix), nil
}
