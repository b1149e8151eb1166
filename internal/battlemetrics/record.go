package battlemetrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// onlineStatus is the only attribute value treated as online.
const onlineStatus = "online"

// Record is the normalized status of a single remote server.
//
// A Record is a value: it is produced fresh for every successful fetch and
// replaces, never merges with, the previous record for the same server.
type Record struct {
	Online     bool
	Players    int
	MaxPlayers int
	Name       string
}

// serverDocument mirrors the subset of the status API response we read.
// Pointers distinguish a missing field from its zero value.
type serverDocument struct {
	Data *struct {
		Attributes *struct {
			Status     *string `json:"status"`
			Players    *int    `json:"players"`
			MaxPlayers *int    `json:"maxPlayers"`
			Name       *string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// parseRecord decodes a status API body into a Record.
func parseRecord(id string, body []byte) (Record, error) {
	var doc serverDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Record{}, &ParseError{ID: id, Err: fmt.Errorf("invalid json: %w", err)}
	}

	if doc.Data == nil || doc.Data.Attributes == nil {
		return Record{}, &ParseError{ID: id, Err: errors.New("missing data.attributes")}
	}
	attrs := doc.Data.Attributes

	var missing []string
	if attrs.Status == nil {
		missing = append(missing, "status")
	}
	if attrs.Players == nil {
		missing = append(missing, "players")
	}
	if attrs.MaxPlayers == nil {
		missing = append(missing, "maxPlayers")
	}
	if attrs.Name == nil {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return Record{}, &ParseError{
			ID:  id,
			Err: fmt.Errorf("missing attributes: %s", strings.Join(missing, ", ")),
		}
	}

	return Record{
		Online:     *attrs.Status == onlineStatus,
		Players:    *attrs.Players,
		MaxPlayers: *attrs.MaxPlayers,
		Name:       *attrs.Name,
	}, nil
}
