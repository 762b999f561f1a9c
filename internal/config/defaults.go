package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8001
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "chroma"
	}
	if cfg.Index.Host == "" {
		cfg.Index.Host = "localhost"
	}
	if cfg.Index.Port == 0 {
		cfg.Index.Port = 8000
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "documents"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.Catalog.DatabasePath == "" {
		cfg.Catalog.DatabasePath = "/usr/local/var/bunko/data/catalog.db"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".csv", ".pdf", ".doc", ".docx", ".odt", ".rtf", ".epub", ".xlsx"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
