// internal/service/parse.go
package service

import (
    "regexp"
    "strings"
)

// Subject/body extraction over free model output. This is a best-effort
// heuristic, not a grammar: missing markers fall back to
// "line 1 = subject, remainder = body".

var bulletAfterWith = regexp.MustCompile(`with:[ \t]*([^\n])`)

// ParseContent splits generated text into a subject line and a body and
// applies the deterministic text repairs.
func ParseContent(content string) (subject, body string) {
    lines := strings.Split(content, "\n")

    subjectLine := ""
    for _, l := range lines {
        if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), "subject:") {
            subjectLine = l
            break
        }
    }
    if subjectLine == "" && len(lines) > 0 {
        subjectLine = lines[0]
    }
    subject = strings.ReplaceAll(subjectLine, "**", "")
    subject = strings.TrimSpace(subject)
    if len(subject) >= 8 && strings.EqualFold(subject[:8], "subject:") {
        subject = strings.TrimSpace(subject[8:])
    }

    bodyStart := -1
    for i, l := range lines {
        low := strings.ToLower(strings.TrimSpace(l))
        if strings.HasPrefix(low, "hi") || strings.HasPrefix(low, "hello") {
            bodyStart = i
            break
        }
    }
    if bodyStart == -1 {
        bodyStart = 1
    }
    if bodyStart >= len(lines) {
        body = ""
    } else {
        body = strings.Join(lines[bodyStart:], "\n")
    }
    body = strings.TrimLeft(body, "\n")

    return subject, RepairBody(body)
}

// RepairBody fixes the known artifacts an empty location field leaves in
// generated text and forces bullets after "with:" onto their own line.
func RepairBody(body string) string {
    body = strings.ReplaceAll(body, " in , ", " ")
    body = strings.ReplaceAll(body, " in ,", ",")
    body = bulletAfterWith.ReplaceAllString(body, "with:\n$1")

    lines := strings.Split(body, "\n")
    for i, l := range lines {
        trimmed := strings.TrimRight(l, " \t")
        if strings.HasSuffix(trimmed, " in") {
            trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, " in"), " \t")
        }
        lines[i] = trimmed
    }
    return strings.TrimSpace(strings.Join(lines, "\n"))
}
