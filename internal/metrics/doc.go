// Package metrics records build metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics need
// no nil checks at call sites:
//
//	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	svc := build.NewService(cfg).WithRecorder(recorder)
//
// Builds are one-shot processes, so the Prometheus recorder is exported by
// writing a node-exporter textfile after each build rather than by serving
// an HTTP endpoint.
package metrics
