package services

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duda4418/dishwise-backend/internal/logger"
)

// LoadCatalogueYAML parses a troubleshooting graph from a YAML seed file.
func LoadCatalogueYAML(path string) (*ImportCatalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var catalogue ImportCatalogue
	if err := yaml.Unmarshal(raw, &catalogue); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(catalogue.Problems) == 0 {
		return nil, fmt.Errorf("seed file %s contains no problems", path)
	}
	return &catalogue, nil
}

// SeedCatalogue imports the YAML seed at path. Used at startup when
// CATALOGUE_SEED_PATH is set; the import is idempotent, so reseeding on every
// boot is safe.
func SeedCatalogue(ctx context.Context, importer ImportService, path string, log *logger.Logger) error {
	catalogue, err := LoadCatalogueYAML(path)
	if err != nil {
		return err
	}
	result, err := importer.ImportCatalogue(ctx, *catalogue)
	if err != nil {
		return fmt.Errorf("seed import: %w", err)
	}
	log.Info("catalogue seeded",
		"path", path,
		"categories_created", result.CategoriesCreated,
		"solutions_created", result.SolutionsCreated,
	)
	return nil
}
