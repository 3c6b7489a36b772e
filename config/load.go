package config

import (
	"fmt"
	"math"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Load reads an optional .env file and then binds the process environment onto Config,
// applying env-default values for anything unset.
func Load(envFiles ...string) (Config, error) {
	var cfg Config

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(file); err != nil {
			return cfg, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the merge defaults that every request falls back to.
func (c Config) Validate() error {
	if math.IsNaN(c.MatchThreshold) || c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [0,1], got %v", c.MatchThreshold)
	}
	if math.IsNaN(c.DistanceThresholdMeters) || math.IsInf(c.DistanceThresholdMeters, 0) || c.DistanceThresholdMeters < 0 {
		return fmt.Errorf("DISTANCE_THRESHOLD_METERS must be a finite non-negative number, got %v", c.DistanceThresholdMeters)
	}
	if math.IsNaN(c.ReviewBand) || c.ReviewBand < 0 || c.ReviewBand > 1 {
		return fmt.Errorf("REVIEW_BAND must be within [0,1], got %v", c.ReviewBand)
	}
	if math.IsNaN(c.DiscrepancyRatio) || c.DiscrepancyRatio <= 0 || c.DiscrepancyRatio > 1 {
		return fmt.Errorf("DISCREPANCY_RATIO must be within (0,1], got %v", c.DiscrepancyRatio)
	}
	if !models.Source(c.PrimarySource).Valid() {
		return fmt.Errorf("PRIMARY_SOURCE must be source_a or source_b, got %q", c.PrimarySource)
	}
	return nil
}

// MergeDefaults returns the options a merge run uses when the request leaves them unset
func (c Config) MergeDefaults() models.MergeOptions {
	return models.MergeOptions{
		MatchThreshold:          c.MatchThreshold,
		DistanceThresholdMeters: c.DistanceThresholdMeters,
		PrimarySource:           models.Source(c.PrimarySource),
		ReviewBand:              c.ReviewBand,
		DiscrepancyRatio:        c.DiscrepancyRatio,
	}
}
