package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// EntityType names a grid asset kind.
type EntityType string

// Known entity types.
const (
	EntityPowerLine  EntityType = "power_line"
	EntityPole       EntityType = "pole"
	EntitySpan       EntityType = "span"
	EntityTap        EntityType = "tap"
	EntityEquipment  EntityType = "equipment"
	EntitySubstation EntityType = "substation"
)

// KnownEntityTypes returns the entity types that have a typed payload.
func KnownEntityTypes() []EntityType {
	return []EntityType{
		EntityPowerLine,
		EntityPole,
		EntitySpan,
		EntityTap,
		EntityEquipment,
		EntitySubstation,
	}
}

// IsKnown returns true if the entity type has a typed payload.
func (e EntityType) IsKnown() bool {
	for _, k := range KnownEntityTypes() {
		if e == k {
			return true
		}
	}
	return false
}

// Payload is the entity data carried by a SyncRecord.
// Each variant reports the entity type it belongs to.
type Payload interface {
	EntityType() EntityType
}

// FlexID is an identifier the server may send as a JSON number or string.
// It always encodes back in the form it was decoded from.
type FlexID struct {
	value   string
	numeric bool
}

// StringID creates a string identifier.
func StringID(s string) FlexID {
	return FlexID{value: s}
}

// IntID creates a numeric identifier.
func IntID(n int64) FlexID {
	return FlexID{value: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the identifier text.
func (f FlexID) String() string {
	return f.value
}

// IsZero returns true if no identifier is set.
func (f FlexID) IsZero() bool {
	return f.value == ""
}

// IsNumeric returns true if the identifier was numeric.
func (f FlexID) IsNumeric() bool {
	return f.numeric
}

// MarshalJSON encodes the identifier as a number or string.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if f.value == "" {
		return []byte("null"), nil
	}
	if f.numeric {
		return []byte(f.value), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON accepts a JSON number, string or null.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = FlexID{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: identifier must be a number or string", ErrInvalidInput)
	}
	*f = FlexID{value: n.String(), numeric: true}
	return nil
}

// ParseFlexID converts user input into an identifier, treating integers as numeric.
func ParseFlexID(s string) FlexID {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntID(n)
	}
	return StringID(s)
}

// Extra holds payload keys a variant does not declare. They are written
// back unchanged, so fields added by the server are never dropped.
type Extra map[string]json.RawMessage

// PowerLinePayload describes a power line.
type PowerLinePayload struct {
	ID              FlexID   `json:"id,omitzero"`
	MRID            string   `json:"mrid,omitempty"`
	Name            string   `json:"name,omitempty"`
	Code            string   `json:"code,omitempty"`
	VoltageLevel    *float64 `json:"voltage_level,omitempty"`
	Length          *float64 `json:"length,omitempty"`
	RegionID        FlexID   `json:"region_id,omitzero"`
	BranchID        FlexID   `json:"branch_id,omitzero"`
	Status          string   `json:"status,omitempty"`
	Description     string   `json:"description,omitempty"`
	SubstationStart FlexID   `json:"substation_start_id,omitzero"`
	SubstationEnd   FlexID   `json:"substation_end_id,omitzero"`
	Extra           Extra    `json:"-"`
}

// EntityType implements Payload.
func (PowerLinePayload) EntityType() EntityType { return EntityPowerLine }

type powerLineFields PowerLinePayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p PowerLinePayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(powerLineFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *PowerLinePayload) UnmarshalJSON(b []byte) error {
	var f powerLineFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = PowerLinePayload(f)
	p.Extra = extra
	return nil
}

// PolePayload describes a pole (tower) on a power line.
type PolePayload struct {
	ID             FlexID   `json:"id,omitzero"`
	MRID           string   `json:"mrid,omitempty"`
	PowerLineID    FlexID   `json:"power_line_id,omitzero"`
	SegmentID      FlexID   `json:"segment_id,omitzero"`
	PoleNumber     string   `json:"pole_number,omitempty"`
	SequenceNumber *int     `json:"sequence_number,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	XPosition      *float64 `json:"x_position,omitempty"`
	YPosition      *float64 `json:"y_position,omitempty"`
	PoleType       string   `json:"pole_type,omitempty"`
	Height         *float64 `json:"height,omitempty"`
	FoundationType string   `json:"foundation_type,omitempty"`
	Material       string   `json:"material,omitempty"`
	YearInstalled  *int     `json:"year_installed,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	IsTap          *bool    `json:"is_tap,omitempty"`
	Extra          Extra    `json:"-"`
}

// EntityType implements Payload.
func (PolePayload) EntityType() EntityType { return EntityPole }

type poleFields PolePayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p PolePayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(poleFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *PolePayload) UnmarshalJSON(b []byte) error {
	var f poleFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = PolePayload(f)
	p.Extra = extra
	return nil
}

// SpanPayload describes the conductor span between two poles.
type SpanPayload struct {
	ID                FlexID   `json:"id,omitzero"`
	MRID              string   `json:"mrid,omitempty"`
	LineID            FlexID   `json:"line_id,omitzero"`
	FromPoleID        FlexID   `json:"from_pole_id,omitzero"`
	ToPoleID          FlexID   `json:"to_pole_id,omitzero"`
	SpanNumber        string   `json:"span_number,omitempty"`
	Length            *float64 `json:"length,omitempty"`
	ConductorType     string   `json:"conductor_type,omitempty"`
	ConductorMaterial string   `json:"conductor_material,omitempty"`
	ConductorSection  string   `json:"conductor_section,omitempty"`
	Tension           *float64 `json:"tension,omitempty"`
	Sag               *float64 `json:"sag,omitempty"`
	SequenceNumber    *int     `json:"sequence_number,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	Extra             Extra    `json:"-"`
}

// EntityType implements Payload.
func (SpanPayload) EntityType() EntityType { return EntitySpan }

type spanFields SpanPayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p SpanPayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(spanFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *SpanPayload) UnmarshalJSON(b []byte) error {
	var f spanFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = SpanPayload(f)
	p.Extra = extra
	return nil
}

// TapPayload describes a branch (tap) off a power line.
type TapPayload struct {
	ID           FlexID   `json:"id,omitzero"`
	MRID         string   `json:"mrid,omitempty"`
	LineID       FlexID   `json:"line_id,omitzero"`
	PoleID       FlexID   `json:"pole_id,omitzero"`
	TapNumber    string   `json:"tap_number,omitempty"`
	TapType      string   `json:"tap_type,omitempty"`
	VoltageLevel *float64 `json:"voltage_level,omitempty"`
	PowerRating  *float64 `json:"power_rating,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Description  string   `json:"description,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Extra        Extra    `json:"-"`
}

// EntityType implements Payload.
func (TapPayload) EntityType() EntityType { return EntityTap }

type tapFields TapPayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p TapPayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(tapFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *TapPayload) UnmarshalJSON(b []byte) error {
	var f tapFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = TapPayload(f)
	p.Extra = extra
	return nil
}

// EquipmentPayload describes equipment mounted on a pole.
type EquipmentPayload struct {
	ID               FlexID `json:"id,omitzero"`
	MRID             string `json:"mrid,omitempty"`
	PoleID           FlexID `json:"pole_id,omitzero"`
	EquipmentType    string `json:"equipment_type,omitempty"`
	Name             string `json:"name,omitempty"`
	Manufacturer     string `json:"manufacturer,omitempty"`
	Model            string `json:"model,omitempty"`
	SerialNumber     string `json:"serial_number,omitempty"`
	YearManufactured *int   `json:"year_manufactured,omitempty"`
	// InstallationDate is kept as sent; the server accepts several formats.
	InstallationDate string `json:"installation_date,omitempty"`
	Condition        string `json:"condition,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Extra            Extra  `json:"-"`
}

// EntityType implements Payload.
func (EquipmentPayload) EntityType() EntityType { return EntityEquipment }

type equipmentFields EquipmentPayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p EquipmentPayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(equipmentFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *EquipmentPayload) UnmarshalJSON(b []byte) error {
	var f equipmentFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = EquipmentPayload(f)
	p.Extra = extra
	return nil
}

// SubstationPayload describes a substation.
type SubstationPayload struct {
	ID           FlexID   `json:"id,omitzero"`
	MRID         string   `json:"mrid,omitempty"`
	Name         string   `json:"name,omitempty"`
	Code         string   `json:"code,omitempty"`
	VoltageLevel *float64 `json:"voltage_level,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description,omitempty"`
	Extra        Extra    `json:"-"`
}

// EntityType implements Payload.
func (SubstationPayload) EntityType() EntityType { return EntitySubstation }

type substationFields SubstationPayload

// MarshalJSON encodes the declared fields merged with Extra.
func (p SubstationPayload) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(substationFields(p), p.Extra)
}

// UnmarshalJSON decodes the declared fields and keeps the rest in Extra.
func (p *SubstationPayload) UnmarshalJSON(b []byte) error {
	var f substationFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return err
	}
	*p = SubstationPayload(f)
	p.Extra = extra
	return nil
}

// GenericPayload carries an entity type with no typed variant, or a record
// whose data did not fit its variant. Fields are kept opaque, with numbers
// as json.Number, so the record survives persistence unchanged.
type GenericPayload struct {
	Type   EntityType
	Fields map[string]any
}

// EntityType implements Payload.
func (g GenericPayload) EntityType() EntityType { return g.Type }

// MarshalJSON encodes the field map as the payload object.
func (g GenericPayload) MarshalJSON() ([]byte, error) {
	if g.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g.Fields)
}

// marshalWithExtra encodes fields and adds every Extra key the declared
// fields did not produce.
func marshalWithExtra(fields any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, declared := merged[key]; !declared {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// unmarshalWithExtra decodes b into fields and returns the keys fields does
// not declare. Returns nil Extra when every key is declared.
func unmarshalWithExtra(b []byte, fields any) (Extra, error) {
	if err := json.Unmarshal(b, fields); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for key := range declaredKeys(reflect.TypeOf(fields).Elem()) {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Extra(all), nil
}

// declaredKeyCache maps a struct type to the JSON keys it declares.
var declaredKeyCache sync.Map

func declaredKeys(t reflect.Type) map[string]struct{} {
	if cached, ok := declaredKeyCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = struct{}{}
	}
	declaredKeyCache.Store(t, keys)
	return keys
}

// decodeGeneric decodes an object into a field map, keeping numbers exact.
func decodeGeneric(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// DecodePayload decodes raw JSON into the variant selected by entity type.
// Unknown entity types decode into a GenericPayload.
func DecodePayload(entityType EntityType, data json.RawMessage) (Payload, error) {
	if entityType == "" {
		return nil, fmt.Errorf("%w: missing entity type", ErrInvalidInput)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = json.RawMessage("{}")
	}

	var (
		payload Payload
		err     error
	)
	switch entityType {
	case EntityPowerLine:
		var p PowerLinePayload
		err = json.Unmarshal(data, &p)
		payload = p
	case EntityPole:
		var p PolePayload
		err = json.Unmarshal(data, &p)
		payload = p
	case EntitySpan:
		var p SpanPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case EntityTap:
		var p TapPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case EntityEquipment:
		var p EquipmentPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case EntitySubstation:
		var p SubstationPayload
		err = json.Unmarshal(data, &p)
		payload = p
	default:
		var fields map[string]any
		fields, err = decodeGeneric(data)
		payload = GenericPayload{Type: entityType, Fields: fields}
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", entityType, err)
	}
	return payload, nil
}

// PayloadIdentifier returns the id or mrid of a payload, whichever is set.
func PayloadIdentifier(p Payload) string {
	switch v := p.(type) {
	case PowerLinePayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case PolePayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case SpanPayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case TapPayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case EquipmentPayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case SubstationPayload:
		return firstNonEmpty(v.ID.String(), v.MRID)
	case GenericPayload:
		for _, key := range []string{"id", "mrid"} {
			if val, ok := v.Fields[key]; ok && val != nil {
				if s := fmt.Sprint(val); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// ValidatePayload checks a payload against the server's required fields.
// Create requires the entity's mandatory fields; update and delete require
// an identifier. Recording a change never calls this.
func ValidatePayload(action Action, p Payload) error {
	if !action.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if p == nil {
		return fmt.Errorf("%w: payload is required", ErrInvalidInput)
	}

	if action != ActionCreate {
		if PayloadIdentifier(p) == "" {
			return fmt.Errorf("%w: %s %s requires id or mrid", ErrInvalidInput, action, p.EntityType())
		}
		return nil
	}

	var missing []string
	require := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}

	switch v := p.(type) {
	case PowerLinePayload:
		require("name", v.Name != "")
		require("code", v.Code != "")
		require("voltage_level", v.VoltageLevel != nil)
	case PolePayload:
		require("power_line_id", !v.PowerLineID.IsZero())
		require("pole_number", v.PoleNumber != "")
		require("pole_type", v.PoleType != "")
	case SpanPayload:
		require("line_id", !v.LineID.IsZero())
		require("from_pole_id", !v.FromPoleID.IsZero())
		require("to_pole_id", !v.ToPoleID.IsZero())
		require("span_number", v.SpanNumber != "")
		require("length", v.Length != nil)
	case TapPayload:
		require("line_id", !v.LineID.IsZero())
		require("pole_id", !v.PoleID.IsZero())
		require("tap_number", v.TapNumber != "")
		require("tap_type", v.TapType != "")
		require("voltage_level", v.VoltageLevel != nil)
	case EquipmentPayload:
		require("pole_id", !v.PoleID.IsZero())
		require("equipment_type", v.EquipmentType != "")
		require("name", v.Name != "")
	case SubstationPayload:
		require("name", v.Name != "")
		require("voltage_level", v.VoltageLevel != nil)
	case GenericPayload:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, p.EntityType())
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing required fields: %s",
			ErrInvalidInput, p.EntityType(), strings.Join(missing, ", "))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
