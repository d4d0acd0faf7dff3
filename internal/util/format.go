package util

// ShortenAddress renders a long ledger address for display and history
// records. Short inputs are returned untouched.
func ShortenAddress(addr string) string {
	if len(addr) <= 13 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-6:]
}
