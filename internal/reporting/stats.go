// internal/reporting/stats.go
//
// Best-effort statistics over stored message bodies. The breakdowns are
// text heuristics, not a data contract.
package reporting

import (
    "sort"
    "strings"
    "unicode"

    "github.com/pixelsolve/coldmailer-backend/internal/repository"
)

// Count is one label/count pair in a breakdown.
type Count struct {
    Label string `json:"label"`
    Count int    `json:"count"`
}

// RecipientCountry pairs an address with its extracted country.
type RecipientCountry struct {
    Email   string `json:"email"`
    Country string `json:"country"`
}

// Stats is the aggregate view served by the stats boundary.
type Stats struct {
    TotalSentToday         int                `json:"total_sent_today"`
    TotalSentAll           int                `json:"total_sent_all"`
    Countries              []Count            `json:"countries"`
    BusinessTypes          []Count            `json:"business_types"`
    TopRecipientsByCountry []RecipientCountry `json:"top_recipients_by_country"`
}

// Reporter derives Stats from the ledger.
type Reporter struct {
    Ledger repository.Ledger
}

var locationMarkers = []string{
    "café in ", "cafe in ", "coffee shop in ", "restaurant in ",
    "gym in ", "shop in ", "business in ",
}

// ExtractCountry pulls a country token out of an "…your café in City,
// Country and…" sentence. Returns "Unknown" when nothing matches.
func ExtractCountry(body string) string {
    for _, line := range strings.Split(body, "\n") {
        low := strings.ToLower(line)
        for _, marker := range locationMarkers {
            idx := strings.Index(low, marker)
            if idx == -1 {
                continue
            }
            loc := line[idx+len(marker):]
            if cut := strings.Index(loc, " and"); cut != -1 {
                loc = loc[:cut]
            }
            loc = strings.TrimRight(strings.TrimSpace(loc), ".,!")
            parts := strings.Split(loc, ",")
            if country := leadingProperNoun(parts[len(parts)-1]); country != "" {
                return country
            }
        }
    }
    return "Unknown"
}

// leadingProperNoun keeps the run of capitalized words at the start of s,
// dropping the trailing prose of the sentence.
func leadingProperNoun(s string) string {
    var kept []string
    for _, w := range strings.Fields(strings.TrimRight(strings.TrimSpace(s), ".,!")) {
        r := []rune(w)
        if len(r) == 0 || !unicode.IsUpper(r[0]) {
            break
        }
        kept = append(kept, w)
    }
    return strings.Join(kept, " ")
}

var businessTypeMarkers = []struct {
    needle string
    label  string
}{
    {"coffee shops like yours", "Coffee Shop"},
    {"cafés like yours", "Café"},
    {"cafes like yours", "Café"},
    {"restaurants like yours", "Restaurant"},
    {"gyms like yours", "Gym"},
    {"brands like yours", "E-Commerce"},
    {"businesses like yours", "Business"},
}

// ExtractBusinessType guesses the pitched business type from the
// "we help X like yours" sentence. Returns "Unknown" when nothing matches.
func ExtractBusinessType(body string) string {
    low := strings.ToLower(body)
    for _, m := range businessTypeMarkers {
        if strings.Contains(low, m.needle) {
            return m.label
        }
    }
    return "Unknown"
}

// Build assembles the aggregate stats view.
func (r *Reporter) Build() (*Stats, error) {
    totals, err := r.Ledger.CountSent()
    if err != nil {
        return nil, err
    }
    sent, err := r.Ledger.SentOutcomes()
    if err != nil {
        return nil, err
    }

    countryCounts := map[string]int{}
    typeCounts := map[string]int{}
    var topByCountry []RecipientCountry
    seen := map[string]bool{}
    for _, o := range sent {
        country := ExtractCountry(o.Content)
        countryCounts[country]++
        typeCounts[ExtractBusinessType(o.Content)]++

        key := o.Email + "|" + country
        if len(topByCountry) < 5 && !seen[key] {
            seen[key] = true
            topByCountry = append(topByCountry, RecipientCountry{Email: o.Email, Country: country})
        }
    }

    return &Stats{
        TotalSentToday:         totals.SentToday,
        TotalSentAll:           totals.SentAll,
        Countries:              topCounts(countryCounts, 5),
        BusinessTypes:          topCounts(typeCounts, 5),
        TopRecipientsByCountry: topByCountry,
    }, nil
}

func topCounts(m map[string]int, n int) []Count {
    out := make([]Count, 0, len(m))
    for label, count := range m {
        out = append(out, Count{Label: label, Count: count})
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Count != out[j].Count {
            return out[i].Count > out[j].Count
        }
        return out[i].Label < out[j].Label
    })
    if len(out) > n {
        out = out[:n]
    }
    return out
}
