// Package subdivision maps Indian states and union territories to the IMD
// meteorological subdivisions used by the rainfall dataset.
package subdivision

import (
	"sort"
	"strings"
)

// Names are title-cased exactly as they are stored in climate_rainfall.
// "Matathwada" is spelled as in the source data.
var table = map[string][]string{
	"Andaman And Nicobar Islands": {"Andaman & Nicobar Islands"},
	"Andhra Pradesh":              {"Coastal Andhra Pradesh", "Rayalseema"},
	"Arunachal Pradesh":           {"Arunachal Pradesh"},
	"Assam":                       {"Assam & Meghalaya"},
	"Bihar":                       {"Bihar"},
	"Chandigarh":                  {"Haryana Delhi & Chandigarh"},
	"Chhattisgarh":                {"Chhattisgarh"},
	"Dadra And Nagar Haveli":      {"Gujarat Region"},
	"Delhi":                       {"Haryana Delhi & Chandigarh"},
	"Goa":                         {"Konkan & Goa"},
	"Gujarat":                     {"Gujarat Region", "Saurashtra & Kutch"},
	"Haryana":                     {"Haryana Delhi & Chandigarh"},
	"Himachal Pradesh":            {"Himachal Pradesh"},
	"Jammu And Kashmir":           {"Jammu & Kashmir"},
	"Jharkhand":                   {"Jharkhand"},
	"Karnataka":                   {"Coastal Karnataka", "North Interior Karnataka", "South Interior Karnataka"},
	"Kerala":                      {"Kerala"},
	"Lakshadweep":                 {"Lakshadweep"},
	"Madhya Pradesh":              {"East Madhya Pradesh", "West Madhya Pradesh"},
	"Maharashtra":                 {"Konkan & Goa", "Madhya Maharashtra", "Matathwada", "Vidarbha"},
	"Manipur":                     {"Naga Mani Mizo Tripura"},
	"Meghalaya":                   {"Assam & Meghalaya"},
	"Mizoram":                     {"Naga Mani Mizo Tripura"},
	"Nagaland":                    {"Naga Mani Mizo Tripura"},
	"Odisha":                      {"Orissa"},
	"Puducherry":                  {"Tamil Nadu"},
	"Punjab":                      {"Punjab"},
	"Rajasthan":                   {"East Rajasthan", "West Rajasthan"},
	"Sikkim":                      {"Sub Himalayan West Bengal & Sikkim"},
	"Tamil Nadu":                  {"Tamil Nadu"},
	"Telangana":                   {"Telangana"},
	"Tripura":                     {"Naga Mani Mizo Tripura"},
	"Uttar Pradesh":               {"East Uttar Pradesh", "West Uttar Pradesh"},
	"Uttarakhand":                 {"Uttarakhand"},
	"West Bengal":                 {"Gangetic West Bengal", "Sub Himalayan West Bengal & Sikkim"},
}

var aliases = map[string]string{
	"orissa":       "Odisha",
	"pondicherry":  "Puducherry",
	"uttaranchal":  "Uttarakhand",
	"nct of delhi": "Delhi",
}

var index = func() map[string]string {
	m := make(map[string]string, len(table)+len(aliases))
	for k := range table {
		m[key(k)] = k
	}
	for a, k := range aliases {
		m[key(a)] = k
	}
	return m
}()

// key folds case, collapses whitespace and treats "&" as "and".
func key(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "&", " and "))
	return strings.Join(strings.Fields(s), " ")
}

// Lookup returns the canonical state name and its subdivisions.
func Lookup(state string) (canonical string, subdivisions []string, ok bool) {
	canonical, ok = index[key(state)]
	if !ok {
		return "", nil, false
	}
	subs := table[canonical]
	out := make([]string, len(subs))
	copy(out, subs)
	return canonical, out, true
}

// States returns the known state names, sorted.
func States() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
