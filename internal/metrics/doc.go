// Package metrics provides conversion and build metrics for docsplice.
//
// Components receive a Recorder through their constructors and default to
// NoopRecorder, so metrics never require nil checks at call sites.
// PrometheusRecorder backs the Recorder with client_golang collectors; one-shot
// builds can dump the registry to a node-exporter textfile with WriteTextfile.
package metrics
