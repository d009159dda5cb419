package scoring

import "unicode/utf16"

// hashCode is the classic 31x string hash with 32-bit wraparound, accumulated
// over UTF-16 code units. Kept bit-compatible with the legacy evaluation view
// so the derived display values stay stable across systems.
func hashCode(s string) int32 {
	var hash int32
	for _, u := range utf16.Encode([]rune(s)) {
		hash = (hash << 5) - hash + int32(u)
	}
	return hash
}

// CompletedOrders derives a stable "completed orders" display value in
// [20,119] from a quotation identifier. It is a presentation placeholder, not
// a real aggregate; determinism per identifier is the contract. The absolute
// value is taken in 64-bit space so MinInt32 cannot survive negation.
func CompletedOrders(quotationID string) int {
	h := int64(hashCode(quotationID))
	if h < 0 {
		h = -h
	}
	return 20 + int(h%100)
}
