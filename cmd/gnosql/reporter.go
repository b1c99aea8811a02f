package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// logReporter implements [tally.StatsReporter] by logging every reported
// value.
type logReporter struct {
	log logrus.FieldLogger
}

func (r logReporter) entry(name string, tags map[string]string) *logrus.Entry {
	fields := logrus.Fields{"metric": name}
	for k, v := range tags {
		fields["tag."+k] = v
	}
	return r.log.WithFields(fields)
}

func (r logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.entry(name, tags).WithField("value", value).Info("counter")
}

func (r logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.entry(name, tags).WithField("value", value).Info("gauge")
}

func (r logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.entry(name, tags).WithField("value", interval).Info("timer")
}

func (r logReporter) ReportHistogramValueSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper float64, samples int64) {
	r.entry(name, tags).WithFields(logrus.Fields{"lower": lower, "upper": upper, "samples": samples}).Info("histogram")
}

func (r logReporter) ReportHistogramDurationSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper time.Duration, samples int64) {
	r.entry(name, tags).WithFields(logrus.Fields{"lower": lower, "upper": upper, "samples": samples}).Info("histogram")
}

func (r logReporter) Capabilities() tally.Capabilities { return r }

func (r logReporter) Reporting() bool { return true }

func (r logReporter) Tagging() bool { return true }

func (r logReporter) Flush() {}
