package model

import (
	"encoding/json"
)

// OutputType classifies what a remote query feeds.
type OutputType string

const (
	OutputSensor   OutputType = "SENSOR"
	OutputCalendar OutputType = "CALENDAR"
)

// FlexID is a query identifier that the remote API serves either as a JSON
// string or as a number. It always normalizes to a string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Query describes one remote-defined sensor or calendar data source.
// The catalog field name is canonically "output_type"; older server builds
// sent "query_type", which is accepted as a fallback on decode.
type Query struct {
	ID                  FlexID     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	OutputType          OutputType `json:"output_type"`
	HAFriendlyName      string     `json:"ha_friendly_name,omitempty"`
	HAUnitOfMeasurement string     `json:"ha_unit_of_measurement,omitempty"`
	HAEntityID          string     `json:"ha_entity_id,omitempty"`
}

func (q *Query) UnmarshalJSON(data []byte) error {
	type alias Query
	aux := struct {
		*alias
		QueryType OutputType `json:"query_type"`
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.OutputType == "" {
		q.OutputType = aux.QueryType
	}
	return nil
}

// FriendlyName returns the HA-facing display name, falling back to the
// query name.
func (q Query) FriendlyName() string {
	if q.HAFriendlyName != "" {
		return q.HAFriendlyName
	}
	return q.Name
}

// EntityID returns the stable entity identifier for this query.
func (q Query) EntityID() string {
	if q.HAEntityID != "" {
		return q.HAEntityID
	}
	return "finance_assistant_" + string(q.ID)
}
