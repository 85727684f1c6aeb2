package region

// USStates returns the 50 US states and the District of Columbia.
func USStates() []Region {
	return []Region{
		{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
		{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
		{"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"}, {"ID", "Idaho"},
		{"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"}, {"KS", "Kansas"},
		{"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"}, {"MD", "Maryland"},
		{"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"}, {"MS", "Mississippi"},
		{"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"}, {"NV", "Nevada"},
		{"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"}, {"NY", "New York"},
		{"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"}, {"OK", "Oklahoma"},
		{"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"}, {"SC", "South Carolina"},
		{"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"}, {"UT", "Utah"},
		{"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"}, {"WV", "West Virginia"},
		{"WI", "Wisconsin"}, {"WY", "Wyoming"}, {"DC", "District of Columbia"},
	}
}

// CanadianProvinces returns the Canadian provinces and territories.
func CanadianProvinces() []Region {
	return []Region{
		{"AB", "Alberta"}, {"BC", "British Columbia"}, {"MB", "Manitoba"},
		{"NB", "New Brunswick"}, {"NL", "Newfoundland and Labrador"}, {"NS", "Nova Scotia"},
		{"NT", "Northwest Territories"}, {"NU", "Nunavut"}, {"ON", "Ontario"},
		{"PE", "Prince Edward Island"}, {"QC", "Quebec"}, {"SK", "Saskatchewan"},
		{"YT", "Yukon"},
	}
}

// ambiguousCodes are codes that are also common words ("IN", "OR", "ON").
// In free text they only count when written after a comma ("Portland, OR").
var ambiguousCodes = map[string]bool{
	"AL": true, "CO": true, "DE": true, "GA": true, "HI": true, "ID": true, "IN": true,
	"LA": true, "MA": true, "ME": true, "MO": true, "OH": true, "OK": true, "OR": true,
	"PA": true, "ON": true, "PE": true,
}

// ByName returns the table for a short set name: "us" or "ca".
func ByName(name string) ([]Region, bool) {
	switch name {
	case "us":
		return USStates(), true
	case "ca":
		return CanadianProvinces(), true
	default:
		return nil, false
	}
}
