// SPDX-License-Identifier: MIT

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	saves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botvar_store_saves_total",
		Help: "Number of successful settings document saves",
	})

	saveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botvar_store_save_errors_total",
		Help: "Number of failed settings document saves",
	})

	backupsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botvar_store_backups_pruned_total",
		Help: "Number of backup files deleted by rotation",
	})

	remoteSyncOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "botvar_store_remote_sync_total",
		Help: "Remote sync operations by direction and result",
	}, []string{"direction", "result"})

	cachedSettings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "botvar_store_settings",
		Help: "Number of settings currently cached",
	})
)
