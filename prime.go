package claimcheck

// IsPrime reports whether n is a prime number using trial division by odd
// candidates up to the integer square root of n. It is defined for every
// int64, negative values included.
func IsPrime(n int64) bool {
	switch {
	case n <= 1:
		return false
	case n <= 3:
		return true
	case n%2 == 0:
		return false
	}
	// i <= n/i keeps i*i from overflowing near math.MaxInt64.
	for i := int64(3); i <= n/i; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}
