package model

import (
    "encoding/json"
    "fmt"
    "strconv"
)

// EquipmentValue is one entry in a room's equipment map.  The source data
// mixes value types: a numeric count for countable items ("Projector": 2)
// next to a free-text capability ("WiFi": "Available").  The engine never
// interprets the values, it only round-trips them, so both shapes are
// kept explicit instead of being squashed into a single primitive.
type EquipmentValue struct {
    Count *int   // set when the entry is a numeric count
    Text  string // set when the entry is a textual descriptor
}

// CountOf builds a numeric equipment value.
func CountOf(n int) EquipmentValue { return EquipmentValue{Count: &n} }

// TextOf builds a textual equipment value.
func TextOf(s string) EquipmentValue { return EquipmentValue{Text: s} }

// MarshalJSON emits the count when present, the text otherwise.
func (v EquipmentValue) MarshalJSON() ([]byte, error) {
    if v.Count != nil {
        return []byte(strconv.Itoa(*v.Count)), nil
    }
    return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.  Other
// shapes (objects, arrays, booleans) are rejected so a malformed
// equipment column fails loudly rather than truncating silently.
func (v *EquipmentValue) UnmarshalJSON(data []byte) error {
    var n int
    if err := json.Unmarshal(data, &n); err == nil {
        v.Count = &n
        v.Text = ""
        return nil
    }
    var s string
    if err := json.Unmarshal(data, &s); err == nil {
        v.Count = nil
        v.Text = s
        return nil
    }
    return fmt.Errorf("equipment value must be a number or a string, got %s", string(data))
}

// Equipment maps an equipment name to its count or descriptor.  It is
// stored as a JSON column on the rooms table.
type Equipment map[string]EquipmentValue

// EncodeEquipment serializes the map for storage.  A nil map encodes to
// an empty JSON object so the column never holds SQL NULL vs "{}"
// ambiguity.
func EncodeEquipment(eq Equipment) (string, error) {
    if eq == nil {
        return "{}", nil
    }
    b, err := json.Marshal(eq)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// DecodeEquipment parses the stored JSON column.  Empty input yields an
// empty map.
func DecodeEquipment(raw string) (Equipment, error) {
    if raw == "" {
        return Equipment{}, nil
    }
    var eq Equipment
    if err := json.Unmarshal([]byte(raw), &eq); err != nil {
        return nil, err
    }
    if eq == nil {
        eq = Equipment{}
    }
    return eq, nil
}
