// Package app wires configuration, the clearing core and the infrastructure
// adapters into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apiclearing "github.com/kilianp07/gridmatch/api/clearing"
	"github.com/kilianp07/gridmatch/config"
	"github.com/kilianp07/gridmatch/core/batch"
	"github.com/kilianp07/gridmatch/core/clearing"
	"github.com/kilianp07/gridmatch/core/device"
	"github.com/kilianp07/gridmatch/core/factory"
	coremetrics "github.com/kilianp07/gridmatch/core/metrics"
	"github.com/kilianp07/gridmatch/core/model"
	coremon "github.com/kilianp07/gridmatch/core/monitoring"
	coremqtt "github.com/kilianp07/gridmatch/core/mqtt"
	"github.com/kilianp07/gridmatch/core/store"
	"github.com/kilianp07/gridmatch/core/topology"
	"github.com/kilianp07/gridmatch/infra/logger"
	"github.com/kilianp07/gridmatch/infra/metrics"
	"github.com/kilianp07/gridmatch/infra/monitoring"
	"github.com/kilianp07/gridmatch/infra/mqtt"
	"github.com/kilianp07/gridmatch/internal/eventbus"
)

// eventBuffer sizes the bus subscriptions so a large batch does not outrun
// the metrics collector.
const eventBuffer = 4096

// Service orchestrates the batch runner, the clearing log store and the
// HTTP and MQTT surfaces.
type Service struct {
	cfg        *config.Config
	strategies *factory.Registry[clearing.Strategy]
	filter     batch.OrderFilter
	sink       coremetrics.MetricsSink
	store      store.Store
	bus        *eventbus.Bus
	monitor    coremon.Monitor
	log        logger.Logger
	batchLog   logger.Logger
	stop       context.CancelFunc
}

// Option customizes a Service.
type Option func(*logger.Options)

// WithLogOutput sends the service logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *logger.Options) { o.Out = w }
}

// New creates a Service from the configuration. Nothing listens until Run.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logOpts := logger.Options{
		Console: cfg.Logging.Format == "console",
		Level:   cfg.Logging.Level,
	}
	for _, opt := range opts {
		opt(&logOpts)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	topo, err := topology.NewNetwork(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	var filter batch.OrderFilter
	if cfg.Validation.Enabled {
		f, err := device.Filter(cfg.Validation.Limits)
		if err != nil {
			return nil, fmt.Errorf("validation: %w", err)
		}
		filter = f
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	bus := eventbus.NewTypedBuffered[eventbus.Event](eventBuffer)
	ctx, stop := context.WithCancel(context.Background())
	metrics.StartEventCollector(ctx, bus, sink)

	return &Service{
		cfg:        cfg,
		strategies: clearing.NewRegistry(topo),
		filter:     filter,
		sink:       sink,
		store:      st,
		bus:        bus,
		monitor:    mon,
		log:        logger.NewWithOptions("service", logOpts),
		batchLog:   logger.NewWithOptions("batch", logOpts),
		stop:       stop,
	}, nil
}

// Strategies lists the registered strategy names.
func (s *Service) Strategies() []string { return s.strategies.Names() }

// Runner builds a runner for the named strategy, the configured one when
// name is empty. Unknown names wrap apiclearing.ErrUnknownStrategy.
func (s *Service) Runner(name string) (*batch.Runner, error) {
	if name == "" {
		name = s.cfg.Clearing.Strategy
	}
	canonical, ok := s.strategies.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, apiclearing.ErrUnknownStrategy)
	}
	// strategy settings only apply to the configured strategy
	var conf map[string]any
	if configured, _ := s.strategies.Resolve(s.cfg.Clearing.Strategy); configured == canonical {
		conf = s.cfg.Clearing.Conf
	}
	strat, err := s.strategies.Create(factory.ModuleConfig{Type: canonical, Conf: conf})
	if err != nil {
		return nil, err
	}
	return batch.NewRunner(clearing.Instrument(strat),
		batch.WithWorkers(s.cfg.Batch.Workers),
		batch.WithLogger(s.batchLog),
		batch.WithEventBus(s.bus),
		batch.WithStore(s.store),
		batch.WithMonitor(s.monitor),
		batch.WithOrderFilter(s.filter),
	), nil
}

// Match clears data with the named strategy.
func (s *Service) Match(ctx context.Context, strategy string, data model.MatchingData) (batch.Result, error) {
	r, err := s.Runner(strategy)
	if err != nil {
		return batch.Result{}, err
	}
	return r.Run(ctx, data)
}

// HandleRequest answers one MQTT clearing request.
func (s *Service) HandleRequest(req coremqtt.Request) coremqtt.Response {
	res, err := s.Match(context.Background(), req.Strategy, req.Data)
	out := coremqtt.Response{
		RequestID:       req.RequestID,
		RunID:           res.RunID,
		Strategy:        res.Strategy,
		Recommendations: res.Recommendations,
		Rejected:        res.Rejected,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	h := apiclearing.NewHandler(s.Runner, s.store, s.Strategies())
	return apiclearing.NewRouter(h, s.cfg.API.Token, s.log)
}

// Run starts the HTTP API, the Prometheus endpoint and the MQTT loop when
// configured, and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(s.cfg.MQTT, s.HandleRequest)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		defer client.Disconnect()
	}

	srv := &http.Server{Addr: s.cfg.API.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("clearing API listening on %s", s.cfg.API.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.stop()
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return s.store.Close()
}
