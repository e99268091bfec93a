package catalog

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Seed is the TOML document accepted by `bloomcart catalog import`.
//
//	[site]
//	businessEmail = "orders@example.com"
//
//	[[items]]
//	title = "Blush Peony Bouquet"
//	price_min = 2500
//	published = true
type Seed struct {
	Site     map[string]string `toml:"site"`
	Items    []Item            `toml:"items"`
	Services []Service         `toml:"services"`
	FAQs     []FAQ             `toml:"faqs"`
}

// Len returns the number of records the seed will write.
func (sd Seed) Len() int {
	return len(sd.Site) + len(sd.Items) + len(sd.Services) + len(sd.FAQs)
}

// LoadSeed decodes a seed file.
func LoadSeed(path string) (Seed, error) {
	var sd Seed
	if _, err := toml.DecodeFile(path, &sd); err != nil {
		return sd, fmt.Errorf("catalog: load seed: %w", err)
	}
	return sd, nil
}

// Import writes every record of sd, calling step after each one.
func (s *Store) Import(ctx context.Context, sd Seed, step func()) error {
	if step == nil {
		step = func() {}
	}
	for k, v := range sd.Site {
		if err := s.SetSiteSetting(ctx, k, v); err != nil {
			return err
		}
		step()
	}
	for _, it := range sd.Items {
		if _, err := s.UpsertItem(ctx, it); err != nil {
			return err
		}
		step()
	}
	for _, sv := range sd.Services {
		if _, err := s.UpsertService(ctx, sv); err != nil {
			return err
		}
		step()
	}
	for _, f := range sd.FAQs {
		if _, err := s.UpsertFAQ(ctx, f); err != nil {
			return err
		}
		step()
	}
	return nil
}
