package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	MessagesReceived   atomic.Int64
	MessagesRejected   atomic.Int64
	StoreWriteSuccess  atomic.Int64
	StoreWriteFailures atomic.Int64
	AlertChannelDrops  atomic.Int64
	Reconnects         atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "ingest_messages_received_total %d\n", MessagesReceived.Load())
	fmt.Fprintf(w, "ingest_messages_rejected_total %d\n", MessagesRejected.Load())
	fmt.Fprintf(w, "ingest_store_write_success_total %d\n", StoreWriteSuccess.Load())
	fmt.Fprintf(w, "ingest_store_write_failures_total %d\n", StoreWriteFailures.Load())
	fmt.Fprintf(w, "ingest_alert_channel_drops_total %d\n", AlertChannelDrops.Load())
	fmt.Fprintf(w, "ingest_reconnects_total %d\n", Reconnects.Load())
}
