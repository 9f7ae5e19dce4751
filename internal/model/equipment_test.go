package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDecodeEquipmentMixedTypes(t *testing.T) {
    eq, err := DecodeEquipment(`{"Projector": 2, "WiFi": "Available", "Whiteboard": "wall-mounted"}`)
    require.NoError(t, err)
    require.Len(t, eq, 3)

    require.NotNil(t, eq["Projector"].Count)
    assert.Equal(t, 2, *eq["Projector"].Count)
    assert.Nil(t, eq["WiFi"].Count)
    assert.Equal(t, "Available", eq["WiFi"].Text)
    assert.Equal(t, "wall-mounted", eq["Whiteboard"].Text)
}

func TestDecodeEquipmentRejectsNestedShapes(t *testing.T) {
    _, err := DecodeEquipment(`{"Projector": {"count": 2}}`)
    assert.Error(t, err)
    _, err = DecodeEquipment(`{"Projector": [1, 2]}`)
    assert.Error(t, err)
    _, err = DecodeEquipment(`{"Projector": true}`)
    assert.Error(t, err)
}

func TestEquipmentRoundTrip(t *testing.T) {
    orig := Equipment{
        "chairs":    CountOf(12),
        "conferenc": TextOf("polycom"),
    }
    raw, err := EncodeEquipment(orig)
    require.NoError(t, err)

    back, err := DecodeEquipment(raw)
    require.NoError(t, err)
    require.Len(t, back, 2)
    require.NotNil(t, back["chairs"].Count)
    assert.Equal(t, 12, *back["chairs"].Count)
    assert.Equal(t, "polycom", back["conferenc"].Text)
}

func TestEncodeEquipmentNilAndEmpty(t *testing.T) {
    raw, err := EncodeEquipment(nil)
    require.NoError(t, err)
    assert.Equal(t, "{}", raw)

    eq, err := DecodeEquipment("")
    require.NoError(t, err)
    assert.Empty(t, eq)

    eq, err = DecodeEquipment("{}")
    require.NoError(t, err)
    assert.Empty(t, eq)
}
