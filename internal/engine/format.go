package engine

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// formatMoney renders a dollar amount with thousands separators, no cents.
func formatMoney(amount float64) string {
	return moneyPrinter.Sprintf("$%d", int64(amount))
}

// formatNumber renders an integer with thousands separators.
func formatNumber(n int64) string {
	return moneyPrinter.Sprintf("%d", n)
}

// formatPercent renders an LTV/DTI value without trailing zeros (96.5, 85).
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatTransaction returns the display label for a transaction type.
func FormatTransaction(tx model.TransactionType) string {
	switch tx {
	case model.TransactionRateTerm:
		return "Rate/Term Refi"
	case model.TransactionCashOut:
		return "Cash-Out Refi"
	default:
		return "Purchase"
	}
}

// FormatProgramLabel returns the display label for a non-QM program.
func FormatProgramLabel(p model.Program) string {
	switch p {
	case model.ProgramBankStatement12:
		return "12-Month Bank Statement"
	case model.ProgramBankStatement24:
		return "24-Month Bank Statement"
	case model.ProgramDSCR:
		return "DSCR"
	case model.ProgramAssetDepletion:
		return "Asset Depletion"
	case model.ProgramNinetyNineOnly:
		return "1099"
	case model.ProgramNoDoc:
		return "No-Doc"
	default:
		return string(p)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
