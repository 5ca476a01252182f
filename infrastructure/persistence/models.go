package persistence

import "time"

// RepositoryModel represents a tracked repository in the database.
type RepositoryModel struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Owner            string     `gorm:"column:owner;size:255;uniqueIndex:idx_repositories_owner_name"`
	Name             string     `gorm:"column:name;size:255;uniqueIndex:idx_repositories_owner_name"`
	RemoteURL        string     `gorm:"column:remote_url;size:1024"`
	DefaultBranch    string     `gorm:"column:default_branch;size:255"`
	Active           bool       `gorm:"column:active;index"`
	SyncFrequency    string     `gorm:"column:sync_frequency;index;size:32"`
	SyncBranch       string     `gorm:"column:sync_branch;size:255"`
	SyncIgnore       string     `gorm:"column:sync_ignore;type:text"`
	LastSyncedCommit string     `gorm:"column:last_synced_commit;size:64"`
	LastSyncedAt     *time.Time `gorm:"column:last_synced_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RepositoryModel) TableName() string {
	return "repositories"
}

// CodeStructureModel represents one extracted function at one commit.
type CodeStructureModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryID int64     `gorm:"column:repository_id;index;uniqueIndex:idx_structures_identity"`
	FilePath     string    `gorm:"column:file_path;index;size:1024"`
	CommitSHA    string    `gorm:"column:commit_sha;size:64;uniqueIndex:idx_structures_identity"`
	FunctionName string    `gorm:"column:function_name;index;size:512"`
	ClassName    string    `gorm:"column:class_name;size:512"`
	Signature    string    `gorm:"column:signature;type:text"`
	Fingerprint  string    `gorm:"column:fingerprint;index;size:64;uniqueIndex:idx_structures_identity"`
	StartLine    int       `gorm:"column:start_line"`
	EndLine      int       `gorm:"column:end_line"`
	Language     string    `gorm:"column:language;size:32"`
	Exported     bool      `gorm:"column:exported"`
	Parameters   string    `gorm:"column:parameters;type:text"`
	ReturnType   string    `gorm:"column:return_type;size:512"`
	Modifiers    string    `gorm:"column:modifiers;type:text"`
	Decorators   string    `gorm:"column:decorators;type:text"`
	Dependencies string    `gorm:"column:dependencies;type:text"`
	LinesOfCode  int       `gorm:"column:lines_of_code;default:0"`
	Cyclomatic   int       `gorm:"column:cyclomatic_complexity;default:0"`
	Cognitive    int       `gorm:"column:cognitive_complexity;default:0"`
	Active       bool      `gorm:"column:active;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (CodeStructureModel) TableName() string {
	return "code_structures"
}

// ReferenceModel represents a tracked code citation in the database.
type ReferenceModel struct {
	ID            string     `gorm:"column:id;type:varchar(36);primaryKey"`
	RepoOwner     string     `gorm:"column:repo_owner;size:255;index:idx_references_repo"`
	RepoName      string     `gorm:"column:repo_name;size:255;index:idx_references_repo"`
	FilePath      string     `gorm:"column:file_path;index;size:1024"`
	ReferenceType string     `gorm:"column:reference_type;size:32"`
	StartLine     *int       `gorm:"column:start_line"`
	EndLine       *int       `gorm:"column:end_line"`
	FunctionName  string     `gorm:"column:function_name;size:512"`
	Content       string     `gorm:"column:content;type:text"`
	ContentHash   string     `gorm:"column:content_hash;size:64"`
	CommitSHA     string     `gorm:"column:commit_sha;size:64"`
	LastModified  *time.Time `gorm:"column:last_modified"`
	Active        bool       `gorm:"column:active;index"`
	Stale         bool       `gorm:"column:stale;index"`
	Dependencies  string     `gorm:"column:dependencies;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ReferenceModel) TableName() string {
	return "code_references"
}

// ChangeEventModel represents a detected code change awaiting processing.
type ChangeEventModel struct {
	ID                 string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Repository         string    `gorm:"column:repository;index;size:512"`
	FilePath           string    `gorm:"column:file_path;size:1024"`
	ChangeType         string    `gorm:"column:change_type;size:32"`
	OldContent         string    `gorm:"column:old_content;type:text"`
	NewContent         string    `gorm:"column:new_content;type:text"`
	OldFilePath        string    `gorm:"column:old_file_path;size:1024"`
	AffectedReferences string    `gorm:"column:affected_references;type:text"`
	CommitHash         string    `gorm:"column:commit_hash;size:64"`
	Timestamp          time.Time `gorm:"column:timestamp;index"`
	Status             string    `gorm:"column:status;index;size:32"`
	ProcessingError    string    `gorm:"column:processing_error;type:text"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ChangeEventModel) TableName() string {
	return "code_change_events"
}

// SyncJobModel represents a repository sync job in the database.
type SyncJobModel struct {
	ID             string     `gorm:"column:id;type:varchar(36);primaryKey"`
	RepositoryID   int64      `gorm:"column:repository_id;index"`
	JobType        string     `gorm:"column:job_type;size:32"`
	Status         string     `gorm:"column:status;index;size:32"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	FromCommit     string     `gorm:"column:from_commit;size:64"`
	ToCommit       string     `gorm:"column:to_commit;size:64"`
	FilesAnalyzed  int        `gorm:"column:files_analyzed;default:0"`
	FunctionsFound int        `gorm:"column:functions_found;default:0"`
	ChangesFound   int        `gorm:"column:changes_detected;default:0"`
	ErrorMessage   string     `gorm:"column:error_message;type:text"`
	RetryCount     int        `gorm:"column:retry_count;default:0"`
	MaxRetries     int        `gorm:"column:max_retries;default:3"`
	NextRetryAt    *time.Time `gorm:"column:next_retry_at;index"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}
