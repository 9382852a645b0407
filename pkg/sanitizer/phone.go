package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var supportedRegions = []string{
	"US",
	"GB",
	"IN",
}

// NormalizePhone parses a phone number and returns it in E.164 form.
// Numbers already carrying a + country prefix parse region-independently;
// bare national numbers are tried against the supported regions in order.
// Returns "" when the input cannot be parsed, which downstream validation
// rejects.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	regions := supportedRegions
	if strings.HasPrefix(phone, "+") {
		regions = []string{""}
	}

	for _, region := range regions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
