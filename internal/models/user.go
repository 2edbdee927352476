package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Gender values accepted by the feed filter. GenderAll means "no constraint"
// and is never sent to the server.
const (
	GenderAll    = "all"
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "others"
)

// Profile is a user as seen by other users: the feed candidate, the sender
// of a connection request, a connection. The dev backend stores it as its
// user row, so it also carries the private login fields, which never leave
// the server.
type Profile struct {
	ID        string         `gorm:"primaryKey" json:"_id"`
	FirstName string         `gorm:"type:text;not null" json:"firstName"`
	LastName  string         `gorm:"type:text" json:"lastName"`
	Age       *int           `json:"age,omitempty"`
	Gender    string         `gorm:"type:text;index" json:"gender,omitempty"`
	Photo     string         `gorm:"type:text" json:"photo,omitempty"`
	Bio       string         `gorm:"type:text" json:"bio,omitempty"`
	Skills    pq.StringArray `gorm:"type:text[]" json:"skills"`

	EmailID      string `gorm:"uniqueIndex" json:"-"`
	PasswordHash string `json:"-"`
}

// BeforeCreate generates a UUID for the profile if none is set yet.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// FullName joins first and last name, skipping an empty last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasSkill reports whether the profile lists skill, compared case-insensitively.
func (p Profile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// ProfileEdit is the body of PATCH /profile/edit. Nil fields are left untouched.
type ProfileEdit struct {
	FirstName *string  `json:"firstName,omitempty"`
	LastName  *string  `json:"lastName,omitempty"`
	Age       *int     `json:"age,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	Photo     *string  `json:"photo,omitempty"`
	Bio       *string  `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

// Apply copies the set fields of e onto p.
func (e ProfileEdit) Apply(p *Profile) {
	if e.FirstName != nil {
		p.FirstName = *e.FirstName
	}
	if e.LastName != nil {
		p.LastName = *e.LastName
	}
	if e.Age != nil {
		age := *e.Age
		p.Age = &age
	}
	if e.Gender != nil {
		p.Gender = *e.Gender
	}
	if e.Photo != nil {
		p.Photo = *e.Photo
	}
	if e.Bio != nil {
		p.Bio = *e.Bio
	}
	if e.Skills != nil {
		p.Skills = pq.StringArray(e.Skills)
	}
}

// Credentials is the body of POST /login.
type Credentials struct {
	EmailID  string `json:"emailId" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUp is the body of POST /signUp.
type SignUp struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	EmailID   string `json:"emailId" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}
