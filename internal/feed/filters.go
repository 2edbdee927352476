package feed

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
)

var (
	ErrEmptySkill    = errors.New("feed: skill is empty")
	ErrInvalidAge    = errors.New("feed: age must be a whole number")
	ErrInvalidGender = errors.New("feed: unknown gender")
)

// FilterForm is the editable filter state. It is separate from the filters
// of the last request, which only change on apply.
type FilterForm struct {
	Skills []string
	MinAge string
	MaxAge string
	Gender string
	Limit  int
}

// DefaultForm is the cleared form: limit 10, any gender.
func DefaultForm() FilterForm {
	return FilterForm{Gender: models.GenderAll, Limit: config.DefaultLimit}
}

// AddSkill appends a trimmed skill tag. It reports false for a duplicate.
func (f *FilterForm) AddSkill(skill string) (bool, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return false, ErrEmptySkill
	}
	if slices.Contains(f.Skills, skill) {
		return false, nil
	}
	f.Skills = append(f.Skills, skill)
	return true, nil
}

// RemoveSkill drops the tag that matches exactly.
func (f *FilterForm) RemoveSkill(skill string) bool {
	i := slices.Index(f.Skills, skill)
	if i < 0 {
		return false
	}
	f.Skills = slices.Delete(f.Skills, i, i+1)
	return true
}

// SetGender accepts all, male, female or others.
func (f *FilterForm) SetGender(g string) error {
	switch g {
	case models.GenderAll, models.GenderMale, models.GenderFemale, models.GenderOther:
		f.Gender = g
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidGender, g)
}

// EffectiveLimit is the limit to request; zero falls back to the default.
func (f FilterForm) EffectiveLimit() int {
	if f.Limit == 0 {
		return config.DefaultLimit
	}
	return f.Limit
}

// Filters converts the form into query filters. Empty fields are dropped and
// gender "all" is never sent.
func (f FilterForm) Filters() (Filters, error) {
	out := Filters{}
	if len(f.Skills) > 0 {
		out["skills"] = strings.Join(f.Skills, ",")
	}
	for key, raw := range map[string]string{"minAge": f.MinAge, "maxAge": f.MaxAge} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAge, key, raw)
		}
		out[key] = n
	}
	if f.Gender != "" && f.Gender != models.GenderAll {
		out["gender"] = f.Gender
	}
	return out, nil
}

func (f FilterForm) clone() FilterForm {
	f.Skills = slices.Clone(f.Skills)
	return f
}
