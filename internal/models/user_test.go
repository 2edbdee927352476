package models_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"devmatch/client/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProfileBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestProfileBeforeCreate_GeneratesUUID(t *testing.T) {
	p := &models.Profile{FirstName: "Ada", Skills: pq.StringArray{"go", "sql"}}

	assert.Empty(t, p.ID, "Profile ID should be empty before BeforeCreate")

	err := p.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	parsed, parseErr := uuid.Parse(p.ID)
	assert.NoError(t, parseErr, "Profile ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestProfileBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestProfileBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	p := &models.Profile{ID: existingID, FirstName: "Linus"}

	err := p.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, p.ID)
}

// TestProfileBeforeCreate_MultipleProfiles verifies unique UUIDs are generated.
func TestProfileBeforeCreate_MultipleProfiles(t *testing.T) {
	profiles := []*models.Profile{{FirstName: "A"}, {FirstName: "B"}, {FirstName: "C"}}
	seen := make(map[string]bool)

	for _, p := range profiles {
		require.NoError(t, p.BeforeCreate(nil))
		assert.NotContains(t, seen, p.ID, "Each profile should have a unique ID")
		seen[p.ID] = true
	}

	assert.Equal(t, len(profiles), len(seen))
}

// TestProfileStructTags catches accidental tag removal during refactoring.
func TestProfileStructTags(t *testing.T) {
	profileType := reflect.TypeOf(models.Profile{})

	idField, found := profileType.FieldByName("ID")
	require.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "_id", idField.Tag.Get("json"))

	skillsField, found := profileType.FieldByName("Skills")
	require.True(t, found)
	assert.Contains(t, skillsField.Tag.Get("gorm"), "type:text[]")

	// Login fields are never serialized.
	for _, name := range []string{"EmailID", "PasswordHash"} {
		f, found := profileType.FieldByName(name)
		require.True(t, found)
		assert.Equal(t, "-", f.Tag.Get("json"), name)
	}
}

func TestProfileJSON_HidesLoginFields(t *testing.T) {
	age := 30
	p := models.Profile{
		ID:           "u1",
		FirstName:    "Grace",
		Age:          &age,
		Skills:       pq.StringArray{"cobol"},
		EmailID:      "grace@example.com",
		PasswordHash: "secret",
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"_id":"u1"`)
	assert.Contains(t, string(raw), `"skills":["cobol"]`)
	assert.NotContains(t, string(raw), "grace@example.com")
	assert.NotContains(t, string(raw), "secret")
}

func TestProfileHelpers(t *testing.T) {
	p := models.Profile{FirstName: "Ken", Skills: pq.StringArray{"Go", "C"}}

	assert.Equal(t, "Ken", p.FullName())
	p.LastName = "Thompson"
	assert.Equal(t, "Ken Thompson", p.FullName())

	assert.True(t, p.HasSkill("go"))
	assert.False(t, p.HasSkill("rust"))
}

func TestProfileEditApply(t *testing.T) {
	bio := "compilers"
	age := 41
	p := models.Profile{FirstName: "Rob", Bio: "old", Skills: pq.StringArray{"plan9"}}

	models.ProfileEdit{Bio: &bio, Age: &age, Skills: []string{"go"}}.Apply(&p)

	assert.Equal(t, "Rob", p.FirstName, "unset fields are untouched")
	assert.Equal(t, "compilers", p.Bio)
	require.NotNil(t, p.Age)
	assert.Equal(t, 41, *p.Age)
	assert.Equal(t, pq.StringArray{"go"}, p.Skills)
}

// BenchmarkProfileBeforeCreate measures UUID generation performance.
func BenchmarkProfileBeforeCreate(b *testing.B) {
	p := &models.Profile{FirstName: "bench"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ID = ""
		_ = p.BeforeCreate(nil)
	}
}
