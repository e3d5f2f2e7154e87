package genai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixelsolve/coldmailer-backend/internal/model"
)

func TestHasPlaceholder(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Hi [BUSINESS NAME] Team,", true},
		{"your café in [LOCATION]", true},
		{"we serve [City] and beyond", true},
		{"shipping across [Country]", true},
		{"Hi Blue Bean Team, your café in Nairobi, Kenya", false},
		{"bullet points [like this] are fine", false},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HasPlaceholder(c.text), c.text)
	}
}

func TestBuildPromptIncludesRecipientData(t *testing.T) {
	r := model.Recipient{
		Name:         "Blue Bean",
		BusinessType: "Café",
		Location:     "Nairobi, Kenya",
		Email:        "hello@bluebean.co",
		Hook:         "great latte art on Instagram",
	}
	p := BuildPrompt(r, 0)

	assert.Contains(t, p, "Business Name: Blue Bean")
	assert.Contains(t, p, "LOCATION: Nairobi, Kenya")
	assert.Contains(t, p, "great latte art on Instagram")
	assert.False(t, strings.Contains(p, CorrectiveInstruction[1:]))
}

func TestBuildPromptRepairAttemptAppendsCorrection(t *testing.T) {
	r := model.Recipient{Name: "Blue Bean"}
	p0 := BuildPrompt(r, 0)
	p1 := BuildPrompt(r, 1)

	assert.NotContains(t, p0, "previous draft still contained")
	assert.Contains(t, p1, "previous draft still contained")
	assert.True(t, strings.HasPrefix(p1, strings.Split(p0, "\n")[0]))
}
