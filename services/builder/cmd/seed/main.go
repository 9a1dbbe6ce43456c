// Package main seeds a running referral API with sample referrals through the
// same client the builder UI uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/client"
)

var (
	givenNames = []string{"Olivia", "Noah", "Charlotte", "Oliver", "Amelia", "Jack", "Isla", "William", "Mia", "Leo"}
	surnames   = []string{"Smith", "Jones", "Williams", "Brown", "Wilson", "Taylor", "Nguyen", "Johnson", "Martin", "White"}
	streets    = []string{"Collins St", "George St", "Queen St", "King William St", "Hay St", "Elizabeth St"}
	places     = []struct{ suburb, state, postcode string }{
		{"Carlton", "VIC", "3053"},
		{"Surry Hills", "NSW", "2010"},
		{"Fortitude Valley", "QLD", "4006"},
		{"Norwood", "SA", "5067"},
		{"Fremantle", "WA", "6160"},
		{"Battery Point", "TAS", "7004"},
	}
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[seed] ")

	n := flag.Int("n", 10, "number of referrals to create")
	apiURL := flag.String("api", getEnv("REFERRAL_API_URL", "http://localhost:8080"), "referral API base URL")
	flag.Parse()

	if *n <= 0 {
		log.Fatalf("-n must be positive, got %d", *n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.New(*apiURL, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	log.Printf("Seeding %d referrals into %s...", *n, *apiURL)
	created := 0
	for i := range *n {
		ref, err := api.CreateReferral(ctx, sampleReferral(i, rng))
		if err != nil {
			log.Printf("  WARNING: referral %d: %v", i+1, err)
			continue
		}
		created++
		log.Printf("  Referral: %s %s (id=%s)", ref.GivenName, ref.Surname, ref.ID)
	}

	log.Printf("Done: %d/%d referrals created.", created, *n)
	if created == 0 {
		os.Exit(1)
	}
}

// sampleReferral builds the i-th sample referral. Every required field is
// filled and the email is unique per i.
func sampleReferral(i int, rng *rand.Rand) client.Referral {
	given := givenNames[rng.IntN(len(givenNames))]
	surname := surnames[rng.IntN(len(surnames))]
	place := places[rng.IntN(len(places))]

	return client.Referral{
		GivenName: given,
		Surname:   surname,
		Email:     fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(given), strings.ToLower(surname), i+1),
		Phone:     fmt.Sprintf("04%08d", rng.IntN(100_000_000)),
		Address: client.Address{
			HomeNameOrNumber: fmt.Sprintf("%d", rng.IntN(200)+1),
			Street:           streets[rng.IntN(len(streets))],
			Suburb:           place.suburb,
			State:            place.state,
			Postcode:         place.postcode,
			Country:          "Australia",
		},
	}
}
