package peercache

import (
	"encoding/json"
	"errors"
)

var errEmptyID = errors.New("entry has empty id")

func unmarshalEntry(data []byte, e *Entry) error {
	if err := json.Unmarshal(data, e); err != nil {
		return err
	}
	if e.Profile.ID.IsEmpty() {
		return errEmptyID
	}
	return nil
}
