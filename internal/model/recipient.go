// internal/model/recipient.go
package model

// Recipient is the normalized identity of one outreach target, built from
// an uploaded spreadsheet row. Immutable after normalization.
type Recipient struct {
    Email             string `json:"email"`
    Name              string `json:"name"`
    BusinessType      string `json:"business_type"`
    Location          string `json:"location"`
    Notes             string `json:"notes"`
    Hook              string `json:"hook"`
    WhatsApp          string `json:"whatsapp"`
    HasWebsite        string `json:"has_website"`
    InstagramPresence string `json:"instagram_presence"`
    SessionID         string `json:"session_id"`
}
