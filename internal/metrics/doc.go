// Package metrics records packaging run metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional without nil checks at call sites.
// PrometheusRecorder registers its collectors on a caller-supplied registry;
// WriteTextfile dumps that registry in the node_exporter textfile format,
// which suits a one-shot CLI that has no scrape endpoint.
package metrics
