// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shbatm/finitude/internal/store"
	"github.com/shbatm/finitude/pkg/infinity"
)

// ListenerStore pairs a listener name with its device state store
type ListenerStore struct {
	Name  string
	Store *store.Store
}

// Collector exposes store snapshots as gauges, one metric family per
// device attribute. Metric families appear as the bus reveals them,
// so the collector is registered unchecked (Describe sends nothing).
type Collector struct {
	stores []ListenerStore

	mu    sync.Mutex
	descs map[string]*prometheus.Desc
}

// NewCollector creates a collector over the given stores
func NewCollector(stores ...ListenerStore) *Collector {
	return &Collector{
		stores: stores,
		descs:  make(map[string]*prometheus.Desc),
	}
}

// Describe implements prometheus.Collector. It intentionally sends
// nothing: the metric set depends on what the bus has reported.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, ls := range c.stores {
		for _, rec := range ls.Store.Snapshot() {
			device := infinity.AddressString(rec.Address)

			ch <- prometheus.MustNewConstMetric(
				c.desc("finitude_device_last_seen_timestamp_seconds",
					"unix time the device was last heard from",
					"name", "device"),
				prometheus.GaugeValue,
				float64(rec.LastSeen.UnixNano())/1e9,
				ls.Name, device,
			)

			c.collectDeviceInfo(ch, ls.Name, device, rec)

			for attr, v := range rec.Attributes {
				if v.IsText {
					continue
				}
				ch <- prometheus.MustNewConstMetric(
					c.desc("finitude_"+attr, "", "name", "device"),
					prometheus.GaugeValue, v.Number, ls.Name, device,
				)
			}
		}
		ch <- prometheus.MustNewConstMetric(
			c.desc("finitude_devices", "number of devices observed on the bus", "name"),
			prometheus.GaugeValue, float64(ls.Store.DeviceCount()), ls.Name,
		)
	}
}

// collectDeviceInfo emits the identity table of a device as an
// info-style metric with constant value 1
func (c *Collector) collectDeviceInfo(ch chan<- prometheus.Metric, name, device string, rec store.Record) {
	var module, firmware, model, serial string
	found := false
	for attr, v := range rec.Attributes {
		if !v.IsText || !strings.HasPrefix(attr, "device_info_") {
			continue
		}
		found = true
		switch strings.TrimPrefix(attr, "device_info_") {
		case "module":
			module = v.Text
		case "firmware":
			firmware = v.Text
		case "model":
			model = v.Text
		case "serial":
			serial = v.Text
		}
	}
	if !found {
		return
	}
	ch <- prometheus.MustNewConstMetric(
		c.desc("finitude_device_info", "info table from each device on the bus",
			"name", "device", "module", "firmware", "model", "serial"),
		prometheus.GaugeValue, 1,
		name, device, module, firmware, model, serial,
	)
}

// desc returns a cached descriptor for a metric family
func (c *Collector) desc(fqName, help string, labels ...string) *prometheus.Desc {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.descs[fqName]; ok {
		return d
	}
	d := prometheus.NewDesc(fqName, help, labels, nil)
	c.descs[fqName] = d
	return d
}
