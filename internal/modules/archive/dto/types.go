package dto

type ImportInput struct {
	// Path is a snapshot file, or "-" for stdin.
	Path       string
	ClearFirst bool
}

type ExportOutput struct {
	Path          string
	SleepSessions int
	SunTimes      int
}

type ImportOutput struct {
	SleepSessions int
	SunTimes      int
	Cleared       bool
	SessionCount  int
}
