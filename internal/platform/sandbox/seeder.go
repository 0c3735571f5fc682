// Package sandbox generates synthetic demo data for development and demo
// environments: a realistic set of hospitals with live-looking bed counts,
// one admin account per hospital, and a demo patient. Generation is
// reproducible from a fixed seed.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/hospital"
	"github.com/healthconnect/healthconnect/internal/domain/user"
	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	HospitalCount int   `json:"hospitalCount"`
	WithAccounts  bool  `json:"withAccounts"`
	Seed          int64 `json:"seed"`
}

// DefaultSeedConfig returns defaults sized for a demo environment.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		HospitalCount: 12,
		WithAccounts:  true,
		Seed:          1,
	}
}

// SeedResult summarizes one seed run.
type SeedResult struct {
	Hospitals int           `json:"hospitals"`
	Accounts  int           `json:"accounts"`
	Duration  time.Duration `json:"duration"`
}

// DemoPassword is the password of every generated account.
const DemoPassword = "demo-pass-123"

var (
	namePrefixes = []string{
		"City", "St. Mary's", "Sunrise", "Riverside", "Lakeview", "Apollo",
		"Unity", "Greenfield", "Central", "Crescent", "Harmony", "Lotus",
	}
	nameSuffixes = []string{"General Hospital", "Medical Center", "Care Institute", "Multispecialty Hospital"}

	cities = []string{"Pune", "Mumbai", "Delhi", "Bengaluru", "Chennai", "Hyderabad", "Kolkata", "Jaipur"}

	facilityPool = []string{
		"ICU", "MRI", "CT Scan", "X-Ray", "Pharmacy", "Blood Bank",
		"Dialysis", "Ventilator", "Oxygen Supply", "Ambulance",
	}
	specialtyPool = []string{
		"Cardiology", "Neurology", "Orthopedics", "Pediatrics",
		"Oncology", "General Medicine", "Gynecology",
	}
)

// Seeder writes synthetic data through the real repositories.
type Seeder struct {
	hospitals hospital.Repository
	users     user.Repository
	logger    zerolog.Logger
}

func NewSeeder(hospitals hospital.Repository, users user.Repository, logger zerolog.Logger) *Seeder {
	return &Seeder{
		hospitals: hospitals,
		users:     users,
		logger:    logger.With().Str("component", "sandbox").Logger(),
	}
}

// Seed generates and stores the configured data set.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))
	result := &SeedResult{}

	for i := 0; i < cfg.HospitalCount; i++ {
		h := s.generateHospital(rng, i)
		if err := s.hospitals.Create(ctx, h); err != nil {
			return nil, fmt.Errorf("seed hospital %q: %w", h.Name, err)
		}
		result.Hospitals++

		if cfg.WithAccounts {
			if err := s.createAdminAccount(ctx, h); err != nil {
				return nil, err
			}
			result.Accounts++
		}
	}

	if cfg.WithAccounts {
		if err := s.createPatientAccount(ctx); err != nil {
			return nil, err
		}
		result.Accounts++
	}

	result.Duration = time.Since(start)
	s.logger.Info().
		Int("hospitals", result.Hospitals).
		Int("accounts", result.Accounts).
		Dur("duration", result.Duration).
		Msg("sandbox seed finished")
	return result, nil
}

func (s *Seeder) generateHospital(rng *rand.Rand, i int) *hospital.Hospital {
	name := fmt.Sprintf("%s %s",
		namePrefixes[i%len(namePrefixes)],
		nameSuffixes[rng.Intn(len(nameSuffixes))])
	city := cities[rng.Intn(len(cities))]

	total := 50 + rng.Intn(450)
	available := rng.Intn(total + 1)

	facilities := pick(rng, facilityPool, 4+rng.Intn(4))
	status := make(map[string]string, len(facilities))
	for _, f := range facilities {
		status[f] = []string{"operational", "operational", "operational", "limited"}[rng.Intn(4)]
	}

	return &hospital.Hospital{
		Name:               name,
		City:               city,
		Address:            fmt.Sprintf("%d Hospital Road, %s", 1+rng.Intn(200), city),
		ContactNumber:      fmt.Sprintf("+91-%010d", 7000000000+rng.Int63n(2999999999)),
		Email:              slug(name) + "@example.com",
		TotalBeds:          total,
		AvailableBeds:      available,
		ICUBeds:            total / 10,
		EmergencyBeds:      total / 20,
		Facilities:         facilities,
		FacilityStatus:     status,
		MedicalSpecialties: pick(rng, specialtyPool, 3+rng.Intn(3)),
		Rating:             1 + rng.Float64()*4,
	}
}

func (s *Seeder) createAdminAccount(ctx context.Context, h *hospital.Hospital) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	id := h.ID
	u := &user.User{
		Username:     slug(h.Name),
		Email:        "admin+" + slug(h.Name) + "@example.com",
		PasswordHash: hash,
		Role:         auth.RoleHospital,
		HospitalID:   &id,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("seed admin for %q: %w", h.Name, err)
	}
	return nil
}

func (s *Seeder) createPatientAccount(ctx context.Context) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	u := &user.User{
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("seed demo patient: %w", err)
	}
	return nil
}

func pick(rng *rand.Rand, pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

func slug(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer(" ", "-", ".", "", "'", "").Replace(s)
	return s
}
