package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Manifest records one batch run for audit. Every run gets a fresh id
// so persisted scores can be traced back to the batch that wrote them.
type Manifest struct {
	RunId       string
	StartedAt   time.Time
	CompletedAt time.Time
	Requested   int
	Scored      int
	NoScore     int
	Failed      int
}

func newManifest(requested int) *Manifest {
	return &Manifest{
		RunId:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Requested: requested,
	}
}

func (m *Manifest) finish(outcomes []Outcome) {
	m.CompletedAt = time.Now().UTC()
	for _, outcome := range outcomes {
		switch outcome.Status {
		case StatusScored:
			m.Scored++
		case StatusNoScore:
			m.NoScore++
		case StatusError:
			m.Failed++
		}
	}
}
