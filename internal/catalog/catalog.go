// Package catalog holds the static instrument configuration for both
// yield sources: the remote country/tenor catalog with its URL slugs,
// the portal checkbox catalog with its batch partition, and the
// declarative label rules that standardize portal headers. Instruments
// are fixed configuration, never discovered at runtime.
package catalog

import (
	"regexp"
	"sort"
	"strconv"

	"bondpulse/pkg/contracts/domain"
)

// Source URLs
const (
	InvestingBaseURL   = "https://www.investing.com"
	InvestingRatesPath = "/rates-bonds"
	InvestingAjaxPath  = "/instruments/HistoricalDataAjax"
	KofiaPortalURL     = "https://www.kofiabond.or.kr/index.html"
)

// Countries returns the remote catalog countries in collection order.
func Countries() []string {
	return []string{"US", "DE", "GB", "JP", "CN"}
}

// Tenors returns the remote catalog tenors in years.
func Tenors() []int {
	return []int{2, 3, 5, 10, 20, 30}
}

// bondSlugs maps country -> tenor -> investing.com URL slug. The US 20Y
// slug breaks the dotted pattern on the live site; that irregularity is
// intentional, not a typo.
var bondSlugs = map[string]map[int]string{
	"US": {
		2:  "u.s.-2-year-bond-yield",
		3:  "u.s.-3-year-bond-yield",
		5:  "u.s.-5-year-bond-yield",
		10: "u.s.-10-year-bond-yield",
		20: "us-20-year-bond-yield",
		30: "u.s.-30-year-bond-yield",
	},
	"DE": {
		2:  "germany-2-year-bond-yield",
		3:  "germany-3-year-bond-yield",
		5:  "germany-5-year-bond-yield",
		10: "germany-10-year-bond-yield",
		20: "germany-20-year-bond-yield",
		30: "germany-30-year-bond-yield",
	},
	"GB": {
		2:  "uk-2-year-bond-yield",
		3:  "uk-3-year-bond-yield",
		5:  "uk-5-year-bond-yield",
		10: "uk-10-year-bond-yield",
		20: "uk-20-year-bond-yield",
		30: "uk-30-year-bond-yield",
	},
	"JP": {
		2:  "japan-2-year-bond-yield",
		3:  "japan-3-year-bond-yield",
		5:  "japan-5-year-bond-yield",
		10: "japan-10-year-bond-yield",
		20: "japan-20-year-bond-yield",
		30: "japan-30-year-bond-yield",
	},
	"CN": {
		2:  "china-2-year-bond-yield",
		3:  "china-3-year-bond-yield",
		5:  "china-5-year-bond-yield",
		10: "china-10-year-bond-yield",
		20: "china-20-year-bond-yield",
		30: "china-30-year-bond-yield",
	},
}

// RemoteInstruments returns the full country×tenor catalog in walk
// order: countries as Countries(), tenors ascending within a country.
func RemoteInstruments() []domain.Instrument {
	var out []domain.Instrument
	for _, country := range Countries() {
		for _, tenor := range Tenors() {
			slug, ok := bondSlugs[country][tenor]
			if !ok {
				continue
			}
			out = append(out, domain.Instrument{Country: country, Tenor: tenor, Slug: slug})
		}
	}
	return out
}

// Slug returns the URL slug for a (country, tenor) pair.
func Slug(country string, tenor int) (string, bool) {
	s, ok := bondSlugs[country][tenor]
	return s, ok
}

// Portal checkbox catalog. Checkbox ids follow the portal's widget
// naming; labels are the headers the export file carries.
var portalInstruments = []domain.PortalInstrument{
	{Code: "KTB_1Y", Label: "국고채권(1년)", CheckboxID: "chkAnnItm_input_0"},
	{Code: "KTB_2Y", Label: "국고채권(2년)", CheckboxID: "chkAnnItm_input_1"},
	{Code: "KTB_3Y", Label: "국고채권(3년)", CheckboxID: "chkAnnItm_input_2"},
	{Code: "KTB_5Y", Label: "국고채권(5년)", CheckboxID: "chkAnnItm_input_3"},
	{Code: "KTB_10Y", Label: "국고채권(10년)", CheckboxID: "chkAnnItm_input_4"},
	{Code: "KTB_20Y", Label: "국고채권(20년)", CheckboxID: "chkAnnItm_input_5"},
	{Code: "KTB_30Y", Label: "국고채권(30년)", CheckboxID: "chkAnnItm_input_6"},
	{Code: "KTB_50Y", Label: "국고채권(50년)", CheckboxID: "chkAnnItm_input_7"},
	{Code: "NHB_5Y", Label: "국민주택1종(5년)", CheckboxID: "chkAnnItm_input_8"},
	{Code: "MSB_91D", Label: "통안증권(91일)", CheckboxID: "chkAnnItm_input_9"},
	{Code: "MSB_1Y", Label: "통안증권(1년)", CheckboxID: "chkAnnItm_input_10"},
	{Code: "MSB_2Y", Label: "통안증권(2년)", CheckboxID: "chkAnnItm_input_11"},
	{Code: "KEPCO_3Y", Label: "한전채(3년)", CheckboxID: "chkAnnItm_input_12"},
	{Code: "KDB_1Y", Label: "산금채(1년)", CheckboxID: "chkAnnItm_input_13"},
	{Code: "CORP_AA_3Y", Label: "회사채(무보증3년)AA-", CheckboxID: "chkAnnItm_input_14"},
	{Code: "CORP_BBB_3Y", Label: "회사채(무보증3년)BBB-", CheckboxID: "chkAnnItm_input_15"},
	{Code: "CD_91D", Label: "CD수익률(91일)", CheckboxID: "chkAnnItm_input_16"},
	{Code: "CP_91D", Label: "CP(91일)", CheckboxID: "chkAnnItm_input_17"},
}

// PortalInstruments returns the full 18-instrument portal catalog in
// checkbox order.
func PortalInstruments() []domain.PortalInstrument {
	out := make([]domain.PortalInstrument, len(portalInstruments))
	copy(out, portalInstruments)
	return out
}

// PortalBatches partitions the portal catalog into the 3 fixed batches
// a single export can carry. Membership is static; each batch runs in
// its own isolated automation session.
func PortalBatches() []domain.PortalBatch {
	return []domain.PortalBatch{
		{Name: "A", Instruments: portalInstruments[0:6]},
		{Name: "B", Instruments: portalInstruments[6:12]},
		{Name: "C", Instruments: portalInstruments[12:18]},
	}
}

// PortalBaselineChecked returns the checkbox ids the portal checks by
// default on a fresh page load. Checked state cannot be read back from
// the widget, so every session force-unchecks exactly this set before
// applying its own selection.
func PortalBaselineChecked() []string {
	return []string{
		"chkAnnItm_input_16",
		"chkAnnItm_input_14",
		"chkAnnItm_input_10",
		"chkAnnItm_input_11",
		"chkAnnItm_input_2",
	}
}

// LabelRule maps a portal header pattern to a canonical instrument
// code. Match runs against the whitespace-stripped header; Template
// expands captures, e.g. "KTB_${1}Y". Rules evaluate in slice order and
// the first match wins.
type LabelRule struct {
	Name     string
	Match    *regexp.Regexp
	Template string
}

// Apply returns the canonical code when the rule matches.
func (r LabelRule) Apply(stripped string) (string, bool) {
	m := r.Match.FindStringSubmatchIndex(stripped)
	if m == nil {
		return "", false
	}
	return string(r.Match.ExpandString(nil, r.Template, stripped, m)), true
}

// BondLabelRules returns the ordered rule table for portal headers.
// Specific rules precede generic ones (91-day money stabilization
// bonds before the year-tenor form).
func BondLabelRules() []LabelRule {
	return []LabelRule{
		{Name: "ktb", Match: regexp.MustCompile(`국고채권?\((\d+)년\)`), Template: "KTB_${1}Y"},
		{Name: "nhb", Match: regexp.MustCompile(`국민주택.*\((\d+)년\)`), Template: "NHB_${1}Y"},
		{Name: "msb-91d", Match: regexp.MustCompile(`통안.*91`), Template: "MSB_91D"},
		{Name: "msb", Match: regexp.MustCompile(`통안.*\((\d+)년\)`), Template: "MSB_${1}Y"},
		{Name: "kepco", Match: regexp.MustCompile(`한전.*\((\d+)년\)`), Template: "KEPCO_${1}Y"},
		{Name: "kdb", Match: regexp.MustCompile(`산금.*\((\d+)년\)`), Template: "KDB_${1}Y"},
		{Name: "corp-aa", Match: regexp.MustCompile(`회사채.*AA`), Template: "CORP_AA_3Y"},
		{Name: "corp-bbb", Match: regexp.MustCompile(`회사채.*BBB`), Template: "CORP_BBB_3Y"},
		{Name: "cd", Match: regexp.MustCompile(`CD`), Template: "CD_91D"},
		{Name: "cp", Match: regexp.MustCompile(`CP`), Template: "CP_91D"},
	}
}

// prefixOrder is the canonical column precedence: government bonds
// before agency paper before corporates before money-market rates.
var prefixOrder = []string{"KTB", "NHB", "MSB", "KEPCO", "KDB", "CORP", "CD", "CP"}

var tenorDigits = regexp.MustCompile(`\d+`)

// columnSortKey ranks a code by catalog prefix then first number.
func columnSortKey(code string) (int, int) {
	for i, prefix := range prefixOrder {
		if len(code) >= len(prefix) && code[:len(prefix)] == prefix {
			num := 0
			if m := tenorDigits.FindString(code); m != "" {
				num, _ = strconv.Atoi(m)
			}
			return i, num
		}
	}
	return len(prefixOrder), 0
}

// SortPortalColumns orders codes by the canonical catalog precedence,
// not source order. Unknown prefixes sort last, preserving their
// relative order.
func SortPortalColumns(codes []string) []string {
	out := make([]string, len(codes))
	copy(out, codes)
	sort.SliceStable(out, func(i, j int) bool {
		pi, ni := columnSortKey(out[i])
		pj, nj := columnSortKey(out[j])
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
	return out
}

// Summary presentation configuration.

// SummaryCountries returns the change-summary country order.
func SummaryCountries() []string {
	return []string{"US", "KR", "DE", "GB", "JP", "CN"}
}

// SummaryTenors returns the tenors the change summary reports.
func SummaryTenors() []int {
	return []int{2, 10}
}

// CurveTenors returns the tenors a curve snapshot spans.
func CurveTenors() []int {
	return []int{2, 3, 5, 10, 20, 30}
}

// CountryAlias resolves reporting country codes to stored column
// prefixes. The portal dataset stores Korean treasuries as KTB_{n}Y
// while reporting addresses them as KR_{n}Y; the alias bridges the two
// without renaming stored data.
func CountryAlias(country string) string {
	if country == "KR" {
		return "KTB"
	}
	return country
}
