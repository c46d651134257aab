// Package metrics provides build observability for classdoc.
//
// Components receive a Recorder through their options. The default is
// NoopRecorder, so no component needs nil checks. PrometheusRecorder backs the
// interface with a Prometheus registry; the CLI writes that registry to a
// node_exporter textfile after a build when --metrics-file is set:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... build with rec ...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
