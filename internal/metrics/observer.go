package metrics

// Observer feeds dispatcher counters into the Prometheus collectors.
type Observer struct{}

// NewObserver returns an Observer backed by the package collectors.
func NewObserver() *Observer {
	return &Observer{}
}

// Connected and Disconnected move the gauge by one; the totals they receive
// are read after the registry lock is released and may arrive out of order.
func (*Observer) Connected(int) {
	ConnectionsTotal.WithLabelValues("connect").Inc()
	ConnectedClients.Inc()
}

func (*Observer) Disconnected(int) {
	ConnectionsTotal.WithLabelValues("disconnect").Inc()
	ConnectedClients.Dec()
}

func (*Observer) Received() {
	MessagesReceived.Inc()
}

func (*Observer) Dropped(reason string) {
	MessagesDropped.WithLabelValues(reason).Inc()
}

func (*Observer) Delivered(ok, failed int) {
	Deliveries.WithLabelValues("ok").Add(float64(ok))
	if failed > 0 {
		Deliveries.WithLabelValues("failed").Add(float64(failed))
	}
	FanOutSize.Observe(float64(ok + failed))
}
