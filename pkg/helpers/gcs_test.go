package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/library-reports/reports/low-stock/20260101T000000Z_low_stock_threshold_2.csv",
		ObjectURL("library-reports", "reports/low-stock/20260101T000000Z_low_stock_threshold_2.csv"))
}
