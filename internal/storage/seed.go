package storage

import (
	"context"
	"fmt"
	"math/rand/v2"

	"devmatch/client/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	seedFirstNames = []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Dennis", "Margaret", "Rob", "Frances", "Guido", "Radia", "Bjarne"}
	seedLastNames  = []string{"Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Ritchie", "Hamilton", "Pike", "Allen", "Rossum", "Perlman", "Stroustrup"}
	seedSkills     = []string{"go", "rust", "sql", "react", "k8s", "python", "redis", "grpc", "postgres", "typescript"}
	seedGenders    = []string{models.GenderMale, models.GenderFemale, models.GenderOther}
)

// Seed creates n demo profiles. Account i logs in as SeedEmail(i) with
// password, so reseeding the same store fails on the first existing account.
func Seed(ctx context.Context, s Storage, n int, password string, r *rand.Rand) ([]models.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	out := make([]models.Profile, 0, n)
	for i := 0; i < n; i++ {
		age := 18 + r.IntN(40)
		first := seedFirstNames[r.IntN(len(seedFirstNames))]
		p := models.Profile{
			FirstName:    first,
			LastName:     seedLastNames[r.IntN(len(seedLastNames))],
			Age:          &age,
			Gender:       seedGenders[r.IntN(len(seedGenders))],
			Bio:          fmt.Sprintf("%s builds things.", first),
			Skills:       pickSkills(r),
			EmailID:      SeedEmail(i),
			PasswordHash: string(hash),
		}
		if err := s.CreateProfile(ctx, &p); err != nil {
			return out, fmt.Errorf("seed %s: %w", p.EmailID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func pickSkills(r *rand.Rand) []string {
	n := 1 + r.IntN(3)
	picked := make([]string, 0, n)
	for _, i := range r.Perm(len(seedSkills))[:n] {
		picked = append(picked, seedSkills[i])
	}
	return picked
}

// SeedEmail is the login of the i-th seeded profile.
func SeedEmail(i int) string {
	return fmt.Sprintf("seed%d@devmatch.local", i)
}
