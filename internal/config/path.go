package config

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SourceDB = "db"
	SourceFS = "fs"

	AuthEd25519 = "ed25519"
	AuthClerk   = "clerk"
)

const (
	DefaultConfigPath = "config.yaml"

	// Name of the single local draft slot inside the user's config dir.
	LocalDraftDir  = "quill"
	LocalDraftFile = "draft.json"

	ArchivePrefix = "posts/"
)
