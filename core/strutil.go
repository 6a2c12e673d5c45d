package core

// Itoa converts an integer to a string without the fmt package
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	u := uint64(n)
	if negative {
		u = uint64(-n)
	}

	var buf [21]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// Utoa is the exported form of utoa for target code
func Utoa(n uint32) string {
	return utoa(n)
}

// ftoa renders v with the given number of decimals, for gains in status dumps
func ftoa(v float32, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	scale := uint32(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	scaled := uint32(v*float32(scale) + 0.5)
	whole := utoa(scaled / scale)
	frac := utoa(scaled % scale)
	for len(frac) < decimals {
		frac = "0" + frac
	}
	s := whole
	if decimals > 0 {
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}
	return s
}
