package metrics

// Исходы загрузки/отдачи для label outcome
const (
	OutcomeOK         = "ok"
	OutcomeUnauth     = "unauthorized"
	OutcomeBadRequest = "bad_request"
	OutcomeTooLarge   = "too_large"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

type Observer interface {
	RecordUpload(outcome string, bytes int64)
	RecordDownload(outcome string)
	RecordCacheLookup(kind string, hit bool)
	RecordRequest(method string, status int, seconds float64)
}

type NoopObserver struct{}

func (NoopObserver) RecordUpload(_ string, _ int64)           {}
func (NoopObserver) RecordDownload(_ string)                  {}
func (NoopObserver) RecordCacheLookup(_ string, _ bool)       {}
func (NoopObserver) RecordRequest(_ string, _ int, _ float64) {}
