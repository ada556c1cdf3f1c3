// Package textutil holds small string helpers shared across packages.
package textutil

// Truncate keeps at most n runes of s. n <= 0 keeps everything.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
