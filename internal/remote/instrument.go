package remote

import (
	"context"

	"github.com/dmitrijs2005/remotefiles/internal/metrics"
)

type instrumented struct {
	Manager
	metrics *metrics.Metrics
}

// Instrument counts the outcome of every Write and Delete on m.
func Instrument(m Manager, mt *metrics.Metrics) Manager {
	if mt == nil {
		return m
	}
	return &instrumented{Manager: m, metrics: mt}
}

func (i *instrumented) Write(ctx context.Context, p string, contents []byte) bool {
	ok := i.Manager.Write(ctx, p, contents)
	i.metrics.ObserveWrite(i.Name(), len(contents), ok)
	return ok
}

func (i *instrumented) Delete(ctx context.Context, p string) bool {
	ok := i.Manager.Delete(ctx, p)
	i.metrics.ObserveDelete(i.Name(), ok)
	return ok
}
