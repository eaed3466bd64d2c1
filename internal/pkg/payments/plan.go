package payments

import (
	"strings"

	"github.com/vibestack/vibestack/app/models"
)

// Supported settlement currencies. Prices are minor units (cents, yen, won).
const (
	CurrencyUSD = "USD"
	CurrencyKRW = "KRW"
	CurrencyEUR = "EUR"
	CurrencyJPY = "JPY"
)

// planPrices is the static plan/currency price table. "single" holds the
// default one-time unlock price; a positive Content.Price overrides it.
var planPrices = map[string]map[string]int64{
	models.PlanPro: {
		CurrencyUSD: 1500,
		CurrencyKRW: 19000,
		CurrencyEUR: 1400,
		CurrencyJPY: 1900,
	},
	models.PlanTeam: {
		CurrencyUSD: 3900,
		CurrencyKRW: 49000,
		CurrencyEUR: 3600,
		CurrencyJPY: 4900,
	},
	models.PlanSingle: {
		CurrencyUSD: 500,
		CurrencyKRW: 15000,
		CurrencyEUR: 450,
		CurrencyJPY: 700,
	},
}

// countryMethods maps a checkout country hint to the provider payment-method
// allowlist. Unknown countries fall back to card only.
var countryMethods = map[string][]string{
	"KR": {"card", "transfer", "virtual_account", "phone"},
	"US": {"card"},
	"JP": {"card", "convenience_store"},
	"DE": {"card", "sepa"},
	"FR": {"card", "sepa"},
}

var defaultMethods = []string{"card"}

// countryCurrency picks a settlement currency when the request carries a
// country hint but no explicit currency.
var countryCurrency = map[string]string{
	"KR": CurrencyKRW,
	"US": CurrencyUSD,
	"JP": CurrencyJPY,
	"DE": CurrencyEUR,
	"FR": CurrencyEUR,
}

func NormalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanPro:
		return models.PlanPro
	case models.PlanTeam:
		return models.PlanTeam
	case models.PlanSingle:
		return models.PlanSingle
	default:
		return ""
	}
}

func NormalizeCurrency(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case CurrencyUSD, CurrencyKRW, CurrencyEUR, CurrencyJPY:
		return strings.ToUpper(strings.TrimSpace(currency))
	default:
		return ""
	}
}

// PriceFor resolves the charge amount for a plan/currency pair from the
// static table.
func PriceFor(plan, currency string) (int64, error) {
	p := NormalizePlan(plan)
	cur := NormalizeCurrency(currency)
	if p == "" || cur == "" {
		return 0, ErrInvalidPlanConfiguration
	}
	amount, ok := planPrices[p][cur]
	if !ok || amount <= 0 {
		return 0, ErrInvalidPlanConfiguration
	}
	return amount, nil
}

// SinglePriceFor resolves the one-time unlock price for a content item,
// honoring a per-content override when set.
func SinglePriceFor(content *models.Content, currency string) (int64, error) {
	if content != nil && content.Price > 0 && NormalizeCurrency(currency) == CurrencyKRW {
		return content.Price, nil
	}
	return PriceFor(models.PlanSingle, currency)
}

// MethodsForCountry returns the payment-method allowlist for a country hint.
func MethodsForCountry(country string) []string {
	if methods, ok := countryMethods[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return methods
	}
	return defaultMethods
}

// CurrencyForCountry resolves a settlement currency from a country hint,
// defaulting to KRW like the rest of the pipeline.
func CurrencyForCountry(country string) string {
	if cur, ok := countryCurrency[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return cur
	}
	return CurrencyKRW
}

// SupportedPlans lists plans with a complete price row, for the pricing page.
func SupportedPlans() []string {
	return []string{models.PlanPro, models.PlanTeam, models.PlanSingle}
}

// SupportedCurrencies lists the settlement currencies of the price table.
func SupportedCurrencies() []string {
	return []string{CurrencyUSD, CurrencyKRW, CurrencyEUR, CurrencyJPY}
}
