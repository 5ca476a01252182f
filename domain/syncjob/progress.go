package syncjob

// Stage is an observable phase of a running sync job. Stage transitions are
// the only points where cancellation takes effect.
type Stage string

const (
	StageInitializing    Stage = "initializing"
	StageFetchingCommits Stage = "fetching_commits"
	StageAnalyzingFiles  Stage = "analyzing_files"
	StageSavingResults   Stage = "saving_results"
	StageCompleted       Stage = "completed"
)

// BaseProgress returns the progress value a stage starts at. Analyzing files
// advances from its base toward 80 as files complete.
func (s Stage) BaseProgress() int {
	switch s {
	case StageInitializing:
		return 5
	case StageFetchingCommits:
		return 20
	case StageAnalyzingFiles:
		return 30
	case StageSavingResults:
		return 90
	case StageCompleted:
		return 100
	}
	return 0
}

// Progress is the polling shape exposed for a job.
type Progress struct {
	JobID          string `json:"job_id"`
	Stage          Stage  `json:"stage"`
	Progress       int    `json:"progress"`
	ProcessedFiles int    `json:"processed_files"`
	TotalFiles     int    `json:"total_files"`
	CurrentFile    string `json:"current_file,omitempty"`
	Message        string `json:"message,omitempty"`
}

// AnalysisProgress maps a processed/total file ratio into the 30-80 band of
// the analyzing stage.
func AnalysisProgress(processed, total int) int {
	if total <= 0 {
		return StageAnalyzingFiles.BaseProgress()
	}
	span := 80 - StageAnalyzingFiles.BaseProgress()
	return StageAnalyzingFiles.BaseProgress() + span*processed/total
}
