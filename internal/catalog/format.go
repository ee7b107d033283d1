package catalog

import (
	"github.com/dustin/go-humanize"
)

const nairaSign = "₦"

// FormatPrice renders a whole-naira price the way the storefront displays it, e.g. ₦2,500.00.
func FormatPrice(price int64) string {
	return nairaSign + humanize.FormatFloat("#,###.##", float64(price))
}
