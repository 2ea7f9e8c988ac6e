package card

import "strconv"

// FormatPrice renders an amount of Colombian pesos the way the es-CO locale
// does with no fraction digits: "$", a no-break space, then the digits
// grouped in threes with ".".
func FormatPrice(amount int64) string {
	neg := amount < 0
	u := uint64(amount)
	if neg {
		u = uint64(-amount)
	}
	digits := strconv.FormatUint(u, 10)

	buf := make([]byte, 0, len(digits)+len(digits)/3+4)
	if neg {
		buf = append(buf, '-')
	}
	buf = append(buf, "$\u00a0"...)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	buf = append(buf, digits[:lead]...)
	for i := lead; i < len(digits); i += 3 {
		buf = append(buf, '.')
		buf = append(buf, digits[i:i+3]...)
	}
	return string(buf)
}
