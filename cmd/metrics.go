package main

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
	AlertsFired       *prometheus.CounterVec
}

var metrics = NewBotMetrics()

func NewBotMetrics() *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Subsystem: "bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Subsystem: "bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "radar",
				Subsystem: "bot",
				Name:      "alerts_fired",
				Help:      "The total number of fired alerts per kind",
			},
			[]string{"kind"},
		),
	}

	prometheus.MustRegister(m.CommandsProcessed)
	prometheus.MustRegister(m.MessagesHandled)
	prometheus.MustRegister(m.AlertsFired)

	return m
}

// LoadMetricsFromDB restores counter values persisted across restarts.
func LoadMetricsFromDB(store *storage.Store) {
	commandsProcessed, _ := store.GetMetric("commands_processed")
	messagesHandled, _ := store.GetMetric("messages_handled")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.MessagesHandled.Add(messagesHandled)

	fired, _ := store.GetMetricsWithLabels("alerts_fired")
	for labelKey, labelValues := range fired {
		for labelValue, value := range labelValues {
			if labelKey != "kind" {
				continue
			}
			metrics.AlertsFired.WithLabelValues(labelValue).Add(value)
		}
	}

	log.Println("Metrics loaded from database.")
}

// SaveMetricsToDB snapshots the counters into the metrics table.
func SaveMetricsToDB(store *storage.Store) {
	store.SaveMetric("commands_processed", "", "", GetMetricValue(metrics.CommandsProcessed))
	store.SaveMetric("messages_handled", "", "", GetMetricValue(metrics.MessagesHandled))

	metricChan := make(chan prometheus.Metric)
	go func() {
		metrics.AlertsFired.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Printf("Failed to read AlertsFired metric: %v", err)
			continue
		}
		var kind string
		for _, label := range metricProto.Label {
			if label.GetName() == "kind" {
				kind = label.GetValue()
			}
		}
		store.SaveMetric("alerts_fired", "kind", kind, metricProto.Counter.GetValue())
	}

	log.Println("Metrics saved to database.")
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
