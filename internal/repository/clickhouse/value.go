package clickhouse

import "github.com/shopspring/decimal"

func parseValue(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
