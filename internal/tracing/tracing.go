package tracing

import (
	"io"

	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Init installs jaeger as the opentracing global tracer. The returned closer
// flushes pending spans on shutdown.
func Init(serviceName string) (io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
	}
	closer, err := cfg.InitGlobalTracer("")
	return closer, errors.Wrap(err, "init tracer")
}
