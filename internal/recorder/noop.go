package recorder

// NoopRecorder discards all records. Used when no database path is configured
// or the database fails to open, so the engine keeps trading without history.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordSignal(*SignalRecord) error     { return nil }
func (*NoopRecorder) RecordProposal(*ProposalRecord) error { return nil }
func (*NoopRecorder) RecordOrder(*OrderRecord) error       { return nil }
func (*NoopRecorder) Close() error                         { return nil }
