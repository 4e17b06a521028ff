package classify

// defaultRuleTable is the built-in priority list. Specific releases come
// before the general bucket that would otherwise absorb them.
var defaultRuleTable = []struct {
	tag  string
	expr string
}{
	// Inflation
	{"National CPI (YoY)", `National.*CPI.*\(YoY\)`},
	{"National CPI (MoM)", `National.*CPI.*\(MoM\)`},
	{"Tokyo CPI Ex Food & Energy (YoY)", `Tokyo.*CPI.*Ex.*Food.*Energy.*\(YoY\)|CPI.*Tokyo.*Ex.*Food.*Energy.*\(YoY\)`},
	{"Tokyo CPI Ex Food & Energy (MoM)", `Tokyo.*CPI.*Ex.*Food.*Energy.*\(MoM\)|CPI.*Tokyo.*Ex.*Food.*Energy.*\(MoM\)`},
	{"Tokyo CPI (YoY)", `Tokyo.*CPI.*\(YoY\)`},
	{"Tokyo CPI (MoM)", `Tokyo.*CPI.*\(MoM\)`},
	{"Core CPI (YoY)", `Core.*CPI.*\(YoY\)`},
	{"Core CPI (MoM)", `Core.*CPI.*\(MoM\)`},
	{"CPI (YoY)", `CPI.*\(YoY\)|Consumer.*Price.*Index.*\(YoY\)`},
	{"CPI (MoM)", `CPI.*\(MoM\)|Consumer.*Price.*Index.*\(MoM\)`},

	// Housing
	{"Housing Prices (YoY)", `Housing.*Price.*\(YoY\)|HPI.*\(YoY\)|House.*Price.*\(YoY\)`},
	{"Housing Prices (MoM)", `Housing.*Price.*\(MoM\)|HPI.*\(MoM\)|House.*Price.*\(MoM\)`},
	{"Building Permits", `Building Permits|Construction.*Permits`},
	{"Housing Starts", `Housing Starts|Home.*Starts`},

	// Consumption
	{"Retail Sales (YoY)", `Retail Sales.*\(YoY\)`},
	{"Retail Sales (MoM)", `Retail Sales.*\(MoM\)`},
	{"Consumer Confidence", `Consumer Confidence|Consumer Sentiment`},

	// Labour
	{"Employment Change", `Employment Change|Nonfarm.*Payroll`},
	{"Unemployment Rate", `Unemployment Rate`},
	{"Job Cuts (YoY)", `Job.*Cuts.*\(YoY\)|Challenger.*Job.*Cuts.*\(YoY\)`},
	{"Jobless Claims", `Initial.*Claims|Continuing.*Claims|Jobless.*Claims`},

	// Business surveys
	{"Manufacturing PMI", `Manufacturing.*PMI`},
	{"Services PMI", `Services.*PMI|Service.*Sector.*PMI`},
	{"Composite PMI", `Composite.*PMI`},

	// Monetary
	{"Interest Rate", `Interest Rate|Fed.*Rate|BoJ.*Rate|ECB.*Rate|BoE.*Rate|RBA.*Rate|FOMC|Bank Rate|Cash Rate`},
	{"Money Supply (YoY)", `Money Supply.*\(YoY\)|M[123].*Money.*Supply.*\(YoY\)`},
	{"Money Supply (MoM)", `Money Supply.*\(MoM\)|M[123].*Money.*Supply.*\(MoM\)`},

	// External
	{"Trade Balance", `Trade Balance|Current Account`},
	{"Commodity Prices (YoY)", `Commodity.*Prices.*\(YoY\)`},
	{"Commodity Prices (MoM)", `Commodity.*Prices.*\(MoM\)`},

	// Production
	{"Industrial Production (YoY)", `Industrial Production.*\(YoY\)`},
	{"Industrial Production (MoM)", `Industrial Production.*\(MoM\)`},
	{"PPI (YoY)", `PPI.*\(YoY\)|Producer.*Price.*\(YoY\)`},
	{"PPI (MoM)", `PPI.*\(MoM\)|Producer.*Price.*\(MoM\)`},
	{"GDP (YoY)", `GDP.*\(YoY\)`},
	{"GDP (QoQ)", `GDP.*\(QoQ\)|GDP.*\(MoM\)`},
	{"Factory Orders", `Factory.*Orders|Manufacturing.*Orders`},
	{"Business Investment", `Capital.*Expenditure|Business.*Investment|Capex`},
	{"Loans (YoY)", `Loans.*\(YoY\)|Credit.*\(YoY\)`},
}

// DefaultRules returns a fresh copy of the built-in rule table.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(defaultRuleTable))
	for _, r := range defaultRuleTable {
		rules = append(rules, MustRule(r.tag, r.expr))
	}
	return rules
}
