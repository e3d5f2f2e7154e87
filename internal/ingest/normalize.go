// internal/ingest/normalize.go
package ingest

import (
    "regexp"
    "strings"

    "github.com/pixelsolve/coldmailer-backend/internal/model"
)

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

// ExtractEmail pulls the first address-shaped token out of a free-text
// contact field. Returns "" when nothing matches.
func ExtractEmail(contact string) string {
    return emailPattern.FindString(contact)
}

// NormalizeRow maps one header-keyed upload row to a Recipient. The second
// return value is false when the row has no usable email address; such rows
// are dropped, not errored.
func NormalizeRow(row map[string]string) (model.Recipient, bool) {
    email := field(row, "Email")
    if email == "" {
        email = ExtractEmail(field(row, "Contact"))
    }
    email = strings.ToLower(trim(email))
    if email == "" || !strings.Contains(email, "@") {
        return model.Recipient{}, false
    }

    city := field(row, "City")
    country := field(row, "Country")
    location := strings.Trim(strings.TrimSpace(city+", "+country), ", ")
    if location == "" {
        location = field(row, "Location")
    }

    return model.Recipient{
        Email:             email,
        Name:              firstOf(row, "Business Name", "name"),
        BusinessType:      firstOf(row, "Type", "business"),
        Location:          location,
        Notes:             firstOf(row, "Notes", "notes"),
        Hook:              field(row, "Personalized Hook / Observation"),
        WhatsApp:          field(row, "WhatsApp"),
        HasWebsite:        field(row, "Has Website"),
        InstagramPresence: field(row, "Instagram Presence"),
    }, true
}

// Normalize runs NormalizeRow over every row, dropping rejects.
func Normalize(rows []map[string]string) []model.Recipient {
    out := make([]model.Recipient, 0, len(rows))
    for _, row := range rows {
        if r, ok := NormalizeRow(row); ok {
            out = append(out, r)
        }
    }
    return out
}

func field(row map[string]string, key string) string {
    return trim(row[key])
}

func firstOf(row map[string]string, keys ...string) string {
    for _, k := range keys {
        if v := trim(row[k]); v != "" {
            return v
        }
    }
    return ""
}

func trim(s string) string {
    return strings.TrimSpace(s)
}
