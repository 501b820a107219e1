package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ConfigError     = 4
	TrainError      = 5
	ArtifactError   = 6
	PredictionError = 7
)
