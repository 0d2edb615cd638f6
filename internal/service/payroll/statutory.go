package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	pfRate = decimal.RequireFromString("0.12")
	pfCap  = decimal.NewFromInt(1800)

	esiRate      = decimal.RequireFromString("0.0075")
	esiThreshold = decimal.NewFromInt(21000)

	ptLowerBound = decimal.NewFromInt(15000)
	ptUpperBound = decimal.NewFromInt(20000)
	ptLowerTax   = decimal.NewFromInt(150)
	ptUpperTax   = decimal.NewFromInt(200)

	monthsPerYear = decimal.NewFromInt(12)
)

// taxBracket taxes the part of annual income above From at Rate. Base is the tax owed on
// everything below From.
type taxBracket struct {
	From decimal.Decimal
	Rate decimal.Decimal
	Base decimal.Decimal
}

// Ordered highest first.
var tdsBrackets = []taxBracket{
	{From: decimal.NewFromInt(1000000), Rate: decimal.RequireFromString("0.30"), Base: decimal.NewFromInt(112500)},
	{From: decimal.NewFromInt(500000), Rate: decimal.RequireFromString("0.20"), Base: decimal.NewFromInt(12500)},
	{From: decimal.NewFromInt(250000), Rate: decimal.RequireFromString("0.05"), Base: decimal.Zero},
}

// ProvidentFund is 12% of basic pay, capped at 1800.
func ProvidentFund(basic decimal.Decimal) decimal.Decimal {
	return decimal.Min(basic.Mul(pfRate), pfCap).Round(2)
}

// EmployeeStateInsurance is 0.75% of gross for gross up to 21000, otherwise nothing.
func EmployeeStateInsurance(gross decimal.Decimal) decimal.Decimal {
	if gross.GreaterThan(esiThreshold) {
		return decimal.Zero
	}
	return gross.Mul(esiRate).Round(2)
}

// ProfessionalTax is a flat slab on monthly gross.
func ProfessionalTax(gross decimal.Decimal) decimal.Decimal {
	switch {
	case gross.LessThanOrEqual(ptLowerBound):
		return decimal.Zero
	case gross.LessThanOrEqual(ptUpperBound):
		return ptLowerTax
	default:
		return ptUpperTax
	}
}

// TDS annualizes monthly gross, applies the progressive brackets and returns the
// monthly share.
func TDS(gross decimal.Decimal) decimal.Decimal {
	annual := gross.Mul(monthsPerYear)
	for _, b := range tdsBrackets {
		if annual.GreaterThan(b.From) {
			yearly := b.Base.Add(annual.Sub(b.From).Mul(b.Rate))
			return yearly.Div(monthsPerYear).Round(2)
		}
	}
	return decimal.Zero
}

func CalculateStatutory(basic, gross decimal.Decimal) payroll.StatutoryDeductions {
	return payroll.StatutoryDeductions{
		ProvidentFund:          ProvidentFund(basic),
		EmployeeStateInsurance: EmployeeStateInsurance(gross),
		ProfessionalTax:        ProfessionalTax(gross),
		TDS:                    TDS(gross),
	}
}
