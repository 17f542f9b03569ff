package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlaceTypos(t *testing.T) {
	cases := []struct {
		text    string
		city    string
		country string
	}{
		{"I'm stuck in Lndon until Friday", "lndon -> london", "<nil>"},
		{"Flying out of Seatlee tomorrow", "seatlee -> seattle", "<nil>"},
		{"We land in Ls Anglees at noon", "ls anglees -> los angeles", "<nil>"},
		{"Visiting Mexco and Paries", "paries -> paris", "mexco -> mexico"},
		{"Back in Paris and Rome", "<nil>", "<nil>"},
		{"no capitals here lndon", "<nil>", "<nil>"},
	}
	for _, tc := range cases {
		got := DetectTypos(tc.text, Contact{}, nil)
		assert.Equal(t, tc.city, deref(got.CityTypo), tc.text)
		assert.Equal(t, tc.country, deref(got.CountryTypo), tc.text)
	}
}

func TestDetectTyposSkipsPeopleAndVenues(t *testing.T) {
	first := "Lisa"
	got := DetectTypos("Lisa here, checking the Lyonn Grill", Contact{FirstName: &first},
		[]Entity{{EntityRestaurant, "lyonn grill"}})
	assert.Nil(t, got.CityTypo)
	assert.Nil(t, got.CountryTypo)

	got = DetectTypos("Hi, this is Ivan Petrov, landing in Lndon", Contact{}, nil)
	assert.Equal(t, "lndon -> london", deref(got.CityTypo))
	assert.Nil(t, got.CountryTypo)
}

func TestDetectPhoneTypo(t *testing.T) {
	cases := map[string]string{
		"call me at 661248083":          "661248083",
		"my cell is 917-555-12345":      "91755512345",
		"reach me on (917) 555 12345":   "91755512345",
		"call 917-555-1234":             "<nil>",
		"my number is +441234567890":    "<nil>",
		"flight on 2024-10-15 at 10.30": "<nil>",
	}
	for text, want := range cases {
		assert.Equal(t, want, deref(DetectTypos(text, Contact{}, nil).PhoneNumberTypo), text)
	}
}

func TestDetectZipTypo(t *testing.T) {
	cases := map[string]string{
		"my zip is 1234":             "1234",
		"zip code: 100011.":          "100011",
		"postal code is 123":         "123",
		"1234 is my zipcode":         "1234",
		"zip 10001, phone 1234":      "<nil>",
		"room 1234 on the 3rd floor": "<nil>",
	}
	for text, want := range cases {
		assert.Equal(t, want, deref(DetectTypos(text, Contact{}, nil).ZipCodeTypo), text)
	}
}
