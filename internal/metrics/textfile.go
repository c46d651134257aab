package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func WriteTextfile(path string, reg *prom.Registry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return prom.WriteToTextfile(path, reg)
}
