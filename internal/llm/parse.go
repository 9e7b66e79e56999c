package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
)

// ParseMinutes reads the whole reply as a base-10 integer of minutes in [0, MaxEstimatedMinutes].
// Anything else, the not-detected marker included, is ErrEstimationUnavailable.
func ParseMinutes(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == NotDetectedMarker {
		return 0, unavailable("estimator did not detect an assignment")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, unavailable(fmt.Sprintf("estimate %q is not a number", truncate(s, 64)))
	}
	if n < 0 || n > constants.MaxEstimatedMinutes {
		return 0, unavailable(fmt.Sprintf("estimate %d is outside 0..%d minutes", n, constants.MaxEstimatedMinutes))
	}
	return n, nil
}

func unavailable(detail string) error {
	return common.NewAppError("ESTIMATION_UNAVAILABLE", detail, common.ErrEstimationUnavailable)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
