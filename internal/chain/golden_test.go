package chain

import (
	"testing"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/testutil"
)

func TestExpirationsGolden(t *testing.T) {
	asOf := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	var days []string
	for _, e := range Expirations(asOf) {
		days = append(days, e.Format("2006-01-02"))
	}

	testutil.CompareWithGolden(t, "expirations_2024-06-03", days)
}
