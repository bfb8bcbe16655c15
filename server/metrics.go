package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mesero_intents_total",
		Help: "Utterances handled, by classified intent type.",
	}, []string{"type"})

	ordersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mesero_orders_confirmed_total",
		Help: "Orders confirmed and persisted.",
	})

	collaboratorFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mesero_collaborator_failures_total",
		Help: "Free-form turns that degraded to the apology because the collaborator failed.",
	})
)
