package googlemonitoring

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/api/option"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	metricPrefix = "promptist_"

	RephraseRequestsMetric = metricPrefix + "rephrase_requests_total"
	RephraseDurationMetric = metricPrefix + "rephrase_duration_seconds"
	CacheLookupsMetric     = metricPrefix + "cache_lookups_total"
	HTTPRequestsMetric     = metricPrefix + "http_requests_total"
)

var inferenceBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120}

// MonitoringClient records service metrics in its own Prometheus registry and
// optionally pushes them to Google Cloud Monitoring.
type MonitoringClient struct {
	projectId  string
	client     *monitoring.MetricClient
	registry   *prometheus.Registry
	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewMonitoringClient creates the recorder. The Cloud Monitoring client is
// only created when projectId is set.
func NewMonitoringClient(ctx context.Context, projectId, jsonCredentialsStr string) (*MonitoringClient, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &MonitoringClient{
		projectId:  projectId,
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	if projectId == "" {
		return c, nil
	}

	var err error
	if jsonCredentialsStr == "" {
		// for prod where you can fetch it from gcp service account
		c.client, err = monitoring.NewMetricClient(ctx)
	} else {
		c.client, err = monitoring.NewMetricClient(ctx, option.WithCredentialsJSON([]byte(jsonCredentialsStr)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Monitoring client: %w", err)
	}

	return c, nil
}

func (c *MonitoringClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PushEnabled reports whether metrics are exported to Cloud Monitoring.
func (c *MonitoringClient) PushEnabled() bool {
	return c.client != nil
}

// Handler serves the registry in the Prometheus exposition format.
func (c *MonitoringClient) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *MonitoringClient) getOrCreateCounterVec(metricName, help string, labels []string) *prometheus.CounterVec {
	c.mu.RLock()
	counter, exists := c.counters[metricName]
	c.mu.RUnlock()
	if exists {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, exists = c.counters[metricName]; exists {
		return counter
	}
	counter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: help,
	}, labels)
	c.registry.MustRegister(counter)
	c.counters[metricName] = counter
	return counter
}

func (c *MonitoringClient) getOrCreateHistogramVec(metricName, help string, labels []string) *prometheus.HistogramVec {
	c.mu.RLock()
	histogram, exists := c.histograms[metricName]
	c.mu.RUnlock()
	if exists {
		return histogram
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if histogram, exists = c.histograms[metricName]; exists {
		return histogram
	}
	histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    help,
		Buckets: inferenceBuckets,
	}, labels)
	c.registry.MustRegister(histogram)
	c.histograms[metricName] = histogram
	return histogram
}

func (c *MonitoringClient) RecordCounter(metricName, help string, labels map[string]string, value float64) {
	labelNames, labelValues := splitLabels(labels)
	counter := c.getOrCreateCounterVec(metricName, help, labelNames)
	counter.WithLabelValues(labelValues...).Add(value)
}

func (c *MonitoringClient) RecordTimer(metricName, help string, labels map[string]string, duration time.Duration) {
	labelNames, labelValues := splitLabels(labels)
	histogram := c.getOrCreateHistogramVec(metricName, help, labelNames)
	histogram.WithLabelValues(labelValues...).Observe(duration.Seconds())
}

// RecordRephrase counts one rewrite and its latency.
func (c *MonitoringClient) RecordRephrase(provider string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.RecordCounter(RephraseRequestsMetric, "Prompt rewrites by provider and outcome.",
		map[string]string{"provider": provider, "status": status}, 1)
	c.RecordTimer(RephraseDurationMetric, "Time spent rewriting a prompt.",
		map[string]string{"provider": provider}, duration)
}

func (c *MonitoringClient) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.RecordCounter(CacheLookupsMetric, "Rewrite cache lookups by result.",
		map[string]string{"result": result}, 1)
}

func (c *MonitoringClient) RecordHTTPRequest(method, path string, status int) {
	c.RecordCounter(HTTPRequestsMetric, "HTTP requests by method, route and status.",
		map[string]string{"method": method, "path": path, "status": strconv.Itoa(status)}, 1)
}

// splitLabels returns label names in sorted order so the same label set
// always maps onto the same vector.
func splitLabels(labels map[string]string) ([]string, []string) {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]string, 0, len(labels))
	for _, name := range names {
		values = append(values, labels[name])
	}
	return names, values
}

// Run pushes metrics every interval until ctx is done. Push failures are
// reported through onError and do not stop the loop.
func (c *MonitoringClient) Run(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PushMetrics(ctx); err != nil {
				onError(err)
			}
		}
	}
}

func (c *MonitoringClient) PushMetrics(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("cloud monitoring is not configured")
	}

	mfs, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	timeSeries := c.toTimeSeries(mfs, time.Now())
	if len(timeSeries) == 0 {
		return nil
	}

	if err := c.client.CreateTimeSeries(ctx, &monitoringpb.CreateTimeSeriesRequest{
		Name:       fmt.Sprintf("projects/%s", c.projectId),
		TimeSeries: timeSeries,
	}); err != nil {
		return fmt.Errorf("failed to write time series data: %w", err)
	}

	return nil
}

// toTimeSeries converts the service's own metric families into Cloud
// Monitoring points. Runtime collectors are skipped.
func (c *MonitoringClient) toTimeSeries(mfs []*dto.MetricFamily, now time.Time) []*monitoringpb.TimeSeries {
	var timeSeries []*monitoringpb.TimeSeries

	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), metricPrefix) {
			continue
		}

		for _, m := range mf.Metric {
			labels := make(map[string]string)
			for _, l := range m.Label {
				labels[l.GetName()] = l.GetValue()
			}

			var value float64
			switch {
			case m.Gauge != nil:
				value = m.Gauge.GetValue()
			case m.Counter != nil:
				value = m.Counter.GetValue()
			case m.Summary != nil:
				value = m.Summary.GetSampleSum()
			case m.Histogram != nil:
				value = m.Histogram.GetSampleSum()
			default:
				continue
			}

			timeSeries = append(timeSeries, &monitoringpb.TimeSeries{
				Metric: &metricpb.Metric{
					Type:   "custom.googleapis.com/" + mf.GetName(),
					Labels: labels,
				},
				Resource: &monitoredres.MonitoredResource{
					Type: "global",
					Labels: map[string]string{
						"project_id": c.projectId,
					},
				},
				Points: []*monitoringpb.Point{
					{
						Interval: &monitoringpb.TimeInterval{
							EndTime: timestamppb.New(now),
						},
						Value: &monitoringpb.TypedValue{
							Value: &monitoringpb.TypedValue_DoubleValue{
								DoubleValue: value,
							},
						},
					},
				},
			})
		}
	}

	return timeSeries
}
