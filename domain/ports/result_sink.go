package ports

import (
	"context"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// ResultSink receives session reports. It owns turning results into test
// outcomes and human-readable messages.
type ResultSink interface {
	Consume(ctx context.Context, report *entities.Report) error
}
