package provider

import (
	"encoding/json"
	"strconv"
	"strings"
)

// okResponse is the value OnlineSim puts in "response" on success. It is sent
// either as the string "1" or the number 1, json.Number accepts both.
const okResponse = "1"

type onlineSimEnvelope struct {
	Response json.Number `json:"response"`
}

func (e onlineSimEnvelope) ok() bool { return e.Response.String() == okResponse }

type onlineSimCountry struct {
	Name        string      `json:"name"`
	CountryCode countryCode `json:"country_code"`
	Online      bool        `json:"online"`
}

// countryCode is the dialing code, sent as a number or a string. It is display
// only, so anything unparsable decodes to 0 instead of failing the listing.
type countryCode int

func (c *countryCode) UnmarshalJSON(b []byte) error {
	v, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		v = 0
	}
	*c = countryCode(v)
	return nil
}

// OnlineSim spells the list key "counties"; "countries" is accepted as well.
type onlineSimCountriesResponse struct {
	onlineSimEnvelope
	Counties  []onlineSimCountry `json:"counties"`
	Countries []onlineSimCountry `json:"countries"`
}

type onlineSimNumber struct {
	DataHumans string `json:"data_humans"`
	FullNumber string `json:"full_number"`
}

type onlineSimNumbersResponse struct {
	onlineSimEnvelope
	Numbers []onlineSimNumber `json:"numbers"`
}

type onlineSimMessage struct {
	DataHumans string `json:"data_humans"`
	CreatedAt  string `json:"created_at"`
	Text       string `json:"text"`
}

type onlineSimInboxResponse struct {
	onlineSimEnvelope
	Online   *bool `json:"online"`
	Messages struct {
		Data []onlineSimMessage `json:"data"`
	} `json:"messages"`
}
