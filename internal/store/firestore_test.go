package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeDocument(t *testing.T) {
	raw := rawDocument{
		Name: "projects/p/databases/(default)/documents/users/u1",
		Fields: map[string]json.RawMessage{
			"email":       json.RawMessage(`{"stringValue":"a@x.com"}`),
			"enabled":     json.RawMessage(`{"booleanValue":true}`),
			"count":       json.RawMessage(`{"integerValue":"42"}`),
			"ratio":       json.RawMessage(`{"doubleValue":0.5}`),
			"triggeredAt": json.RawMessage(`{"timestampValue":"2024-01-15T10:30:00Z"}`),
		},
	}
	doc := raw.decode()

	assert.Equal(t, "a@x.com", doc.String("email"))
	assert.True(t, doc.Bool("enabled"))
	assert.Equal(t, int64(42), doc.Fields["count"])
	assert.Equal(t, 0.5, doc.Fields["ratio"])

	triggeredAt, ok := doc.Time("triggeredAt")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), triggeredAt.UTC())
}

func TestDecodeDocument_MissingFieldsAreZeroValues(t *testing.T) {
	doc := (&rawDocument{}).decode()
	assert.Equal(t, "", doc.String("email"))
	assert.False(t, doc.Bool("enabled"))
	_, ok := doc.Time("triggeredAt")
	assert.False(t, ok)
}

func TestEncodeFields(t *testing.T) {
	when := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	encoded := encodeFields(map[string]interface{}{
		"status":      "triggered",
		"enabled":     true,
		"attempts":    3,
		"triggeredAt": when,
	})

	assert.Equal(t, map[string]string{"stringValue": "triggered"}, encoded["status"])
	assert.Equal(t, map[string]bool{"booleanValue": true}, encoded["enabled"])
	assert.Equal(t, map[string]string{"integerValue": "3"}, encoded["attempts"])
	assert.Equal(t, map[string]string{"timestampValue": "2024-01-15T10:30:00Z"}, encoded["triggeredAt"])
}

func TestBuildWhere_SingleFilter(t *testing.T) {
	where := buildWhere([]Filter{{Field: "email", Value: "a@x.com"}})

	ff, ok := where["fieldFilter"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "EQUAL", ff["op"])
	assert.Equal(t, map[string]string{"fieldPath": "email"}, ff["field"])
	assert.Equal(t, map[string]string{"stringValue": "a@x.com"}, ff["value"])
}

func TestBuildWhere_CompositeAnd(t *testing.T) {
	where := buildWhere([]Filter{
		{Field: "role", Value: "village_editor"},
		{Field: "assignedVillageId", Value: "V1"},
	})

	composite, ok := where["compositeFilter"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "AND", composite["op"])
	assert.Len(t, composite["filters"], 2)
}

func TestBuildWhere_NoFilters(t *testing.T) {
	assert.Nil(t, buildWhere(nil))
}
