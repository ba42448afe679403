package investing

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Identity scan bounds. The embedded page state is a deep tree full of
// unrelated widget data; the scan stops descending at maxScanDepth and
// reads at most maxScanElements entries of any array.
const (
	maxScanDepth    = 12
	maxScanElements = 30
	minInstrumentID = 1000
)

// identityKeys are the field names whose values the page state scan
// treats as carrying an instrument id.
var identityKeys = []string{"instrumentId", "pairId", "pair_id"}

// pairIDPatterns are raw-markup fallbacks, tried in order when the
// embedded page state yields nothing. Older page builds inline the id
// in bootstrap scripts or data attributes.
var pairIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"pair_id"\s*:\s*(\d{4,})`),
	regexp.MustCompile(`'pair_id'\s*:\s*(\d{4,})`),
	regexp.MustCompile(`data-pair-id=["'](\d{4,})`),
	regexp.MustCompile(`var\s+pair_id\s*=\s*(\d{4,})`),
}

// ExtractInstrumentID pulls the numeric instrument id out of an
// instrument page. Three strategies in order: the canonical path in
// the embedded page state, a bounded scan of that state for id-shaped
// fields, then raw-markup patterns.
func ExtractInstrumentID(html string) (int, bool) {
	if state, ok := pageState(html); ok {
		if id, ok := canonicalInstrumentID(state); ok {
			return id, true
		}
		if id, ok := scanForInstrumentID(state, 0); ok {
			return id, true
		}
	}
	for _, pattern := range pairIDPatterns {
		m := pattern.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id, true
		}
	}
	return 0, false
}

// pageState decodes the __NEXT_DATA__ JSON blob embedded in the page.
func pageState(html string) (map[string]interface{}, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return nil, false
	}
	var state map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false
	}
	return state, true
}

// canonicalInstrumentID reads the id where current page builds put it:
// props.pageProps.state.bondStore.instrumentId.
func canonicalInstrumentID(state map[string]interface{}) (int, bool) {
	node := state
	for _, key := range []string{"props", "pageProps", "state", "bondStore"} {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			return 0, false
		}
		node = child
	}
	return asInstrumentID(node["instrumentId"])
}

// scanForInstrumentID walks the page state for identity-shaped fields.
func scanForInstrumentID(node interface{}, depth int) (int, bool) {
	if depth > maxScanDepth {
		return 0, false
	}
	switch v := node.(type) {
	case map[string]interface{}:
		for _, key := range identityKeys {
			if id, ok := asInstrumentID(v[key]); ok {
				return id, true
			}
		}
		for _, child := range v {
			if id, ok := scanForInstrumentID(child, depth+1); ok {
				return id, true
			}
		}
	case []interface{}:
		for i, child := range v {
			if i >= maxScanElements {
				break
			}
			if id, ok := scanForInstrumentID(child, depth+1); ok {
				return id, true
			}
		}
	}
	return 0, false
}

// asInstrumentID accepts whole numbers above the id floor. Page state
// is full of small integers that are not ids.
func asInstrumentID(v interface{}) (int, bool) {
	n, ok := v.(float64)
	if !ok || n != math.Trunc(n) || n <= minInstrumentID {
		return 0, false
	}
	return int(n), true
}
