package model

// VersionInfo is returned by the version endpoint. DbVersion is the
// applied goose migration, LatestDbVersion the newest one embedded in
// the binary.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	LatestDbVersion  string          `json:"latest_db_version"`
	Features         map[string]bool `json:"features"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message,omitempty"`
}
