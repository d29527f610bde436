package processors

import (
	"fmt"

	"github.com/username/riconcilia/src/models"
)

// Cash deposits are searched from three days before to seven days after the accounting day.
const (
	CashWindowBefore = 3
	CashWindowAfter  = 7
)

const cashNoMatchNote = "NO_MATCH - Nessun versamento AS400 trovato in range (+7/-3)."

// diffLabel renders the difference as a percentage of the theoretical amount,
// or in euro when the percentage is undefined.
func diffLabel(p Pairing) string {
	if pct, ok := PercentOfTheoretical(p.Difference(), p.Theoretical); ok {
		return fmt.Sprintf("Diff: %s%%", pct.StringFixed(2))
	}
	return fmt.Sprintf("Diff: %s €", p.Difference().StringFixed(2))
}

var CashProfile = CategoryProfile{
	Category:         models.CategoryCash,
	FeedLabel:        "Contanti AS400",
	Join:             WindowJoin{Before: CashWindowBefore, After: CashWindowAfter},
	Tolerance:        NewTolerance("5.00", "20.00"),
	PositiveDaysOnly: true,
	Unaggregated:     true,
	Note: func(p Pairing) string {
		switch {
		case !p.Matched:
			return cashNoMatchNote
		case p.Status == models.StatusBalanced:
			return "Vedi database AS400 per dettagli arrotondamenti."
		case p.Status == models.StatusMinorAnomaly:
			return diffLabel(p) + ". Vedi database AS400 per dettagli arrotondamenti."
		default:
			return fmt.Sprintf("%s. Versamento AS400 del %s non abbinato (scarto oltre soglia).",
				diffLabel(p), p.MatchedDate.Format("02/01/2006"))
		}
	},
}

var BankCardProfile = CategoryProfile{
	Category:  models.CategoryBankCard,
	FeedLabel: "Carte Bancarie",
	Join:      DateOffsetJoin{},
	Tolerance: NewTolerance("0.50", "5.00"),
	Note: func(p Pairing) string {
		switch p.Status {
		case models.StatusBalanced:
			return "Numia OK"
		case models.StatusNotFound:
			return "Nessun versamento Excel"
		default:
			return diffLabel(p) + ". Verificare POS"
		}
	},
}

var FuelCardProfile = CategoryProfile{
	Category:  models.CategoryFuelCard,
	FeedLabel: "iP Portal",
	Join:      DateOffsetJoin{},
	Tolerance: NewTolerance("1.00", "10.00"),
	Note: func(p Pairing) string {
		switch p.Status {
		case models.StatusBalanced:
			return ""
		case models.StatusNotFound:
			return "Nessuna transazione iP Portal"
		default:
			return diffLabel(p)
		}
	},
}

// VoucherProfile joins on the following day: vouchers are registered on iP Portal
// the day after the sale.
var VoucherProfile = CategoryProfile{
	Category:  models.CategoryVoucher,
	FeedLabel: "Buoni",
	Join:      DateOffsetJoin{OffsetDays: 1},
	Tolerance: NewTolerance("1.00", "10.00"),
	Note: func(p Pairing) string {
		switch p.Status {
		case models.StatusBalanced:
			return fmt.Sprintf("OK (%d tr. su iP Portal)", p.Count)
		case models.StatusNotFound:
			return "Nessun buono su iP Portal (+1g)"
		default:
			return fmt.Sprintf("%s. Su iP Portal (+1g) (%d tr.)", diffLabel(p), p.Count)
		}
	},
}

var MobilePayProfile = CategoryProfile{
	Category:          models.CategoryMobilePay,
	FeedLabel:         "Satispay",
	Join:              DateOffsetJoin{},
	Tolerance:         NewTolerance("0.50", "5.00"),
	WholeFeedFallback: true,
	Note: func(p Pairing) string {
		switch p.Status {
		case models.StatusBalanced:
			return ""
		case models.StatusNotFound:
			return "Nessuna transazione Satispay"
		default:
			return diffLabel(p)
		}
	},
}

// Profiles lists every category profile in matching order.
func Profiles() []CategoryProfile {
	return []CategoryProfile{CashProfile, BankCardProfile, FuelCardProfile, VoucherProfile, MobilePayProfile}
}
