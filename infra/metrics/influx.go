package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/gridmatch/core/metrics"
	"github.com/kilianp07/gridmatch/infra/logger"
)

// InfluxSink writes clearing summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordSlot writes one slot_cleared point.
func (s *InfluxSink) RecordSlot(sum coremetrics.SlotSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("slot_cleared").
		AddTag("market_id", sum.MarketID).
		AddTag("time_slot", sum.TimeSlot).
		AddTag("strategy", sum.Strategy).
		AddTag("run_id", sum.RunID).
		AddTag("failed", strconv.FormatBool(sum.Failed)).
		AddField("bids", sum.Bids).
		AddField("offers", sum.Offers).
		AddField("rejected", sum.Rejected).
		AddField("matches", sum.Matches).
		AddField("energy", round3(sum.Energy)).
		AddField("clearing_rate", round3(sum.ClearingRate)).
		AddField("duration_ms", round3(sum.Duration.Seconds()*1000)).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection writes one order_rejected point.
func (s *InfluxSink) RecordRejection(r coremetrics.RejectedOrder) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("order_rejected").
		AddTag("market_id", r.MarketID).
		AddTag("time_slot", r.TimeSlot).
		AddTag("side", r.Side).
		AddTag("run_id", r.RunID).
		AddField("reason", r.Reason).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBatch writes one batch_completed point.
func (s *InfluxSink) RecordBatch(b coremetrics.BatchSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_completed").
		AddTag("strategy", b.Strategy).
		AddTag("run_id", b.RunID).
		AddField("markets", b.Markets).
		AddField("slots", b.Slots).
		AddField("recommendations", b.Recommendations).
		AddField("rejected", b.Rejected).
		AddField("failures", b.Failures).
		AddField("duration_ms", round3(b.Duration.Seconds()*1000)).
		SetTime(b.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
