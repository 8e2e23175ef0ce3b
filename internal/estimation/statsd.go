package estimation

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/sonido-sonar/logging"
)

// Publisher receives every iteration as it completes.
type Publisher interface {
	Publish(it *Iteration) error
}

// StatsdClient is the subset of the DogStatsD client used for publishing.
type StatsdClient interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
	Close() error
}

// StatsdPublisher sends per-iteration figures to a DogStatsD agent.
type StatsdPublisher struct {
	client  StatsdClient
	band    bode.Band
	metrics *MetricsCalculator
	logger  logging.Logger
}

// NewStatsdPublisher connects to the agent at address. Metric names are
// prefixed with namespace and every metric carries tags.
func NewStatsdPublisher(address, namespace string, tags []string, band bode.Band, logger logging.Logger) (*StatsdPublisher, error) {
	client, err := statsd.New(address,
		statsd.WithNamespace(namespace),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client for %s: %w", address, err)
	}

	return NewStatsdPublisherWithClient(client, band, logger), nil
}

// NewStatsdPublisherWithClient wraps an existing client.
func NewStatsdPublisherWithClient(client StatsdClient, band bode.Band, logger logging.Logger) *StatsdPublisher {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &StatsdPublisher{
		client:  client,
		band:    band,
		metrics: NewMetricsCalculator(logger),
		logger:  logger,
	}
}

func (p *StatsdPublisher) Publish(it *Iteration) error {
	summary := p.metrics.Summarize(it, p.band)

	if err := p.client.Incr("iterations", nil, 1); err != nil {
		return err
	}
	if err := p.client.Gauge("delay.tau_ns", summary.TauNs, nil, 1); err != nil {
		return err
	}
	if it.Estimate != nil {
		if err := p.client.Gauge("response.valid_bins", float64(it.Estimate.ValidBins()), nil, 1); err != nil {
			return err
		}
	}
	if summary.BandBins > 0 {
		if err := p.client.Gauge("response.band_gain_db", summary.BandGainDB, nil, 1); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes and closes the client.
func (p *StatsdPublisher) Close() error {
	return p.client.Close()
}
