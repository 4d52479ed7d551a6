package copydesk

import "embed"

//go:embed migrations
var MigrationsFS embed.FS

//go:embed seed/catalog.yaml
var SeedCatalog []byte
