package ports

type CommandMetrics interface {
	RecordSuccess(op string)
	RecordConflict(op string)
	RecordFailure(op string)
}
