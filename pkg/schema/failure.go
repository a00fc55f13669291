package schema

import (
	"encoding/json"
	"errors"
)

// AssetFailure records a body part that could not be fetched or decoded.
type AssetFailure struct {
	Part string `json:"part"`
	URL  string `json:"url,omitzero"`

	Error error `json:"-"`
}

type alias struct {
	Part  string `json:"part"`
	URL   string `json:"url,omitzero"`
	Error string `json:"error,omitzero"`
}

func (f *AssetFailure) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	a := alias{
		Part: f.Part,
		URL:  f.URL,
	}
	if f.Error != nil {
		a.Error = f.Error.Error()
	}

	return json.Marshal(a)
}

func (f *AssetFailure) UnmarshalJSON(data []byte) error {
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	f.Part = a.Part
	f.URL = a.URL
	if a.Error != "" {
		f.Error = errors.New(a.Error)
	}

	return nil
}
