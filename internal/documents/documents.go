// Package documents encodes the record set, event log, badge set and settings
// as self-describing JSON documents, and reads every schema version the app
// has ever written.
package documents

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"visitd/internal/merge"
	"visitd/internal/models"
	"visitd/internal/regions"
)

// Version is written into every document. Version 0 marks a legacy document
// that carried no version field.
const Version = 2

var ErrMalformed = eris.New("malformed document")

type recordsDocument struct {
	Version     int                           `json:"version"`
	LastUpdated time.Time                     `json:"lastUpdated"`
	Regions     map[string]models.RegionVisit `json:"regions"`
}

type eventsDocument struct {
	Version int             `json:"version"`
	Events  models.EventLog `json:"events"`
}

type badgesDocument struct {
	Version int             `json:"version"`
	Badges  models.BadgeSet `json:"badges"`
}

type settingsDocument struct {
	Version  int              `json:"version"`
	Settings *models.Settings `json:"settings"`
}

type stateDocument struct {
	Version  int              `json:"version"`
	Records  recordsDocument  `json:"records"`
	Events   eventsDocument   `json:"events"`
	Badges   badgesDocument   `json:"badges"`
	Settings settingsDocument `json:"settings"`
}

func EncodeRecords(rs models.RecordSet) ([]byte, error) {
	return json.Marshal(newRecordsDocument(rs))
}

func newRecordsDocument(rs models.RecordSet) recordsDocument {
	doc := recordsDocument{Version: Version, LastUpdated: rs.LastUpdated, Regions: rs.Regions}
	if doc.Regions == nil {
		doc.Regions = map[string]models.RegionVisit{}
	}
	return doc
}

// DecodeRecords reads a records document of any version and reports the
// version it found. A bare JSON array of region names is the oldest schema:
// each listed region was marked visited, with no dates.
func DecodeRecords(data []byte) (models.RecordSet, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.RecordSet{}, 0, eris.Wrap(ErrMalformed, "empty records document")
	}

	if data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return models.RecordSet{}, 0, eris.Wrapf(ErrMalformed, "legacy records list: %s", err)
		}
		rs := models.NewRecordSet()
		for _, name := range names {
			key := regions.Key(name)
			if key == "" {
				continue
			}
			rs.Regions[key] = models.RegionVisit{Visited: true, IsActive: true, WasEverVisited: true}
		}
		return rs, 0, nil
	}

	var doc recordsDocument
	if err := unmarshalObject(data, &doc); err != nil {
		return models.RecordSet{}, 0, eris.Wrapf(ErrMalformed, "records: %s", err)
	}
	return recordsFromDocument(doc), doc.Version, nil
}

func recordsFromDocument(doc recordsDocument) models.RecordSet {
	rs := models.RecordSet{Regions: doc.Regions, LastUpdated: doc.LastUpdated}
	if rs.Regions == nil {
		rs.Regions = map[string]models.RegionVisit{}
	}
	return merge.Normalize(rs)
}

func EncodeEvents(log models.EventLog) ([]byte, error) {
	if log == nil {
		log = models.EventLog{}
	}
	return json.Marshal(eventsDocument{Version: Version, Events: log})
}

func DecodeEvents(data []byte) (models.EventLog, int, error) {
	var doc eventsDocument
	if err := unmarshalObject(data, &doc); err != nil {
		return nil, 0, eris.Wrapf(ErrMalformed, "events: %s", err)
	}
	for _, ev := range doc.Events {
		if ev.Region == "" || ev.Timestamp.IsZero() {
			return nil, 0, eris.Wrap(ErrMalformed, "events: entry without region or timestamp")
		}
	}
	return merge.Events(doc.Events, nil), doc.Version, nil
}

func EncodeBadges(bs models.BadgeSet) ([]byte, error) {
	if bs == nil {
		bs = models.BadgeSet{}
	}
	return json.Marshal(badgesDocument{Version: Version, Badges: bs})
}

// DecodeBadges accepts the current document and the legacy form, a bare list
// of earned badge ids.
func DecodeBadges(data []byte) (models.BadgeSet, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, 0, eris.Wrapf(ErrMalformed, "legacy badge list: %s", err)
		}
		bs := make(models.BadgeSet, len(ids))
		for _, id := range ids {
			bs[id] = models.BadgeState{ID: id, Earned: true}
		}
		return bs, 0, nil
	}

	var doc badgesDocument
	if err := unmarshalObject(data, &doc); err != nil {
		return nil, 0, eris.Wrapf(ErrMalformed, "badges: %s", err)
	}
	bs := make(models.BadgeSet, len(doc.Badges))
	for id, b := range doc.Badges {
		b.ID = id
		bs[id] = b
	}
	return bs, doc.Version, nil
}

func EncodeSettings(s models.Settings) ([]byte, error) {
	return json.Marshal(settingsDocument{Version: Version, Settings: &s})
}

// DecodeSettings accepts the enveloped document and the legacy flat object.
func DecodeSettings(data []byte) (models.Settings, int, error) {
	var doc settingsDocument
	if err := unmarshalObject(data, &doc); err != nil {
		return models.Settings{}, 0, eris.Wrapf(ErrMalformed, "settings: %s", err)
	}
	if doc.Settings != nil {
		return *doc.Settings, doc.Version, nil
	}
	var flat models.Settings
	if err := json.Unmarshal(data, &flat); err != nil {
		return models.Settings{}, 0, eris.Wrapf(ErrMalformed, "legacy settings: %s", err)
	}
	return flat, 0, nil
}

// EncodeState writes the local snapshot: the four documents in one envelope.
func EncodeState(st models.State) ([]byte, error) {
	events := st.Events
	if events == nil {
		events = models.EventLog{}
	}
	badges := st.Badges
	if badges == nil {
		badges = models.BadgeSet{}
	}
	settings := st.Settings
	return json.Marshal(stateDocument{
		Version:  Version,
		Records:  newRecordsDocument(st.Records),
		Events:   eventsDocument{Version: Version, Events: events},
		Badges:   badgesDocument{Version: Version, Badges: badges},
		Settings: settingsDocument{Version: Version, Settings: &settings},
	})
}

// DecodeState reads a local snapshot. Files written before the envelope
// existed hold a bare records document and are upgraded here.
func DecodeState(data []byte) (models.State, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return models.State{}, 0, eris.Wrapf(ErrMalformed, "state: %s", err)
		}
		if _, ok := probe["records"]; ok {
			var doc stateDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return models.State{}, 0, eris.Wrapf(ErrMalformed, "state: %s", err)
			}
			st := models.State{
				Records:  recordsFromDocument(doc.Records),
				Events:   merge.Events(doc.Events.Events, nil),
				Badges:   models.BadgeSet{},
				Settings: models.DefaultSettings(),
			}
			for id, b := range doc.Badges.Badges {
				b.ID = id
				st.Badges[id] = b
			}
			if doc.Settings.Settings != nil {
				st.Settings = *doc.Settings.Settings
			}
			return st, doc.Version, nil
		}
	}

	rs, version, err := DecodeRecords(data)
	if err != nil {
		return models.State{}, 0, err
	}
	return models.State{
		Records:  rs,
		Events:   models.EventLog{},
		Badges:   models.BadgeSet{},
		Settings: models.DefaultSettings(),
	}, version, nil
}

// unmarshalObject rejects anything that is not a single JSON object, which
// catches truncated blobs before any field is trusted.
func unmarshalObject(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return eris.New("not a JSON object")
	}
	if !json.Valid(data) {
		return eris.New("invalid JSON")
	}
	return json.Unmarshal(data, v)
}
