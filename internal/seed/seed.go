// Package seed loads the demo catalog shipped with the binary.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/database"
)

//go:embed seed.yaml
var defaultData []byte

// Creator is a seeded creator row.
type Creator struct {
	Name       string `yaml:"name"`
	Slug       string `yaml:"slug"`
	Bio        string `yaml:"bio"`
	AvatarURL  string `yaml:"avatarUrl"`
	WebsiteURL string `yaml:"websiteUrl"`
	TwitterURL string `yaml:"twitterUrl"`
}

// Category is a seeded category row.
type Category struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// Tag is a seeded tag row.
type Tag struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Resource is a seeded resource. Creator, Category and Tags hold slugs.
type Resource struct {
	Title       string              `yaml:"title"`
	Slug        string              `yaml:"slug"`
	Description string              `yaml:"description"`
	URL         string              `yaml:"url"`
	Type        models.ResourceType `yaml:"type"`
	Price       string              `yaml:"price"`
	ImageURL    string              `yaml:"imageUrl"`
	Creator     string              `yaml:"creator"`
	Category    string              `yaml:"category"`
	Featured    bool                `yaml:"featured"`
	Tags        []string            `yaml:"tags"`
	Metadata    map[string]any      `yaml:"metadata"`
}

// Data is a complete seed set.
type Data struct {
	Creators   []Creator  `yaml:"creators"`
	Categories []Category `yaml:"categories"`
	Tags       []Tag      `yaml:"tags"`
	Resources  []Resource `yaml:"resources"`
}

// Counts reports how many rows Run inserted.
type Counts struct {
	Creators     int
	Categories   int
	Tags         int
	Resources    int
	ResourceTags int
}

// Default returns the embedded seed set.
func Default() (*Data, error) {
	return Load(defaultData)
}

// Load parses raw YAML and checks that every resource points at a known creator, category and tag.
func Load(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Data) validate() error {
	creators, err := slugSet("creator", len(d.Creators), func(i int) string { return d.Creators[i].Slug })
	if err != nil {
		return err
	}
	categories, err := slugSet("category", len(d.Categories), func(i int) string { return d.Categories[i].Slug })
	if err != nil {
		return err
	}
	tags, err := slugSet("tag", len(d.Tags), func(i int) string { return d.Tags[i].Slug })
	if err != nil {
		return err
	}
	if _, err := slugSet("resource", len(d.Resources), func(i int) string { return d.Resources[i].Slug }); err != nil {
		return err
	}

	var errs []error
	for _, r := range d.Resources {
		if r.Title == "" || r.URL == "" {
			errs = append(errs, fmt.Errorf("resource %q: title and url are required", r.Slug))
		}
		if !r.Type.Valid() {
			errs = append(errs, fmt.Errorf("resource %q: unknown type %q", r.Slug, r.Type))
		}
		if !creators[r.Creator] {
			errs = append(errs, fmt.Errorf("resource %q: unknown creator %q", r.Slug, r.Creator))
		}
		if !categories[r.Category] {
			errs = append(errs, fmt.Errorf("resource %q: unknown category %q", r.Slug, r.Category))
		}
		for _, t := range r.Tags {
			if !tags[t] {
				errs = append(errs, fmt.Errorf("resource %q: unknown tag %q", r.Slug, t))
			}
		}
	}
	return errors.Join(errs...)
}

func slugSet(kind string, n int, slugAt func(int) string) (map[string]bool, error) {
	set := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		s := slugAt(i)
		if s == "" {
			return nil, fmt.Errorf("%s #%d has no slug", kind, i+1)
		}
		if set[s] {
			return nil, fmt.Errorf("duplicate %s slug %q", kind, s)
		}
		set[s] = true
	}
	return set, nil
}

// Run replaces the catalog with d in a single transaction. Pending submissions and accounts are left alone.
func Run(ctx context.Context, db database.Beginner, d *Data) (Counts, error) {
	var counts Counts
	err := database.WithTx(ctx, db, func(tx pgx.Tx) error {
		counts = Counts{}
		for _, table := range []string{"resource_tags", "resources", "tags", "categories", "creators"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		creatorIDs := make(map[string]int64, len(d.Creators))
		for _, c := range d.Creators {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO creators (name, slug, bio, avatar_url, website_url, twitter_url)
				VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
				RETURNING id`,
				c.Name, c.Slug, c.Bio, c.AvatarURL, c.WebsiteURL, c.TwitterURL,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert creator %q: %w", c.Slug, err)
			}
			creatorIDs[c.Slug] = id
			counts.Creators++
		}

		categoryIDs := make(map[string]int64, len(d.Categories))
		for _, c := range d.Categories {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO categories (name, slug, description)
				VALUES ($1, $2, NULLIF($3, ''))
				RETURNING id`,
				c.Name, c.Slug, c.Description,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert category %q: %w", c.Slug, err)
			}
			categoryIDs[c.Slug] = id
			counts.Categories++
		}

		tagIDs := make(map[string]int64, len(d.Tags))
		for _, t := range d.Tags {
			var id int64
			if err := tx.QueryRow(ctx, `INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, t.Name, t.Slug).Scan(&id); err != nil {
				return fmt.Errorf("insert tag %q: %w", t.Slug, err)
			}
			tagIDs[t.Slug] = id
			counts.Tags++
		}

		for _, r := range d.Resources {
			var metadata []byte
			if len(r.Metadata) > 0 {
				b, err := json.Marshal(r.Metadata)
				if err != nil {
					return fmt.Errorf("encode metadata for %q: %w", r.Slug, err)
				}
				metadata = b
			}
			price := r.Price
			if price == "" {
				price = "Free"
			}
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO resources (title, slug, description, url, type, price, image_url, creator_id, category_id, is_featured, metadata)
				VALUES ($1, $2, NULLIF($3, ''), $4, $5::resource_type, $6, NULLIF($7, ''), $8, $9, $10, $11::jsonb)
				RETURNING id`,
				r.Title, r.Slug, r.Description, r.URL, string(r.Type), price, r.ImageURL,
				creatorIDs[r.Creator], categoryIDs[r.Category], r.Featured, metadata,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert resource %q: %w", r.Slug, err)
			}
			counts.Resources++

			for _, t := range r.Tags {
				if _, err := tx.Exec(ctx, `INSERT INTO resource_tags (resource_id, tag_id) VALUES ($1, $2)`, id, tagIDs[t]); err != nil {
					return fmt.Errorf("link tag %q to %q: %w", t, r.Slug, err)
				}
				counts.ResourceTags++
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}
