package imagehost

import "github.com/prometheus/client_golang/prometheus"

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "imagehost_uploads_total", Help: "Image uploads by backend and result"},
		[]string{"backend", "result"},
	)
	uploadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "imagehost_upload_bytes_total", Help: "Bytes of successfully uploaded images"},
		[]string{"backend"},
	)
)

func init() { prometheus.MustRegister(uploadsTotal, uploadBytes) }

func observe(backend string, n int64, err error) {
	if err != nil {
		uploadsTotal.WithLabelValues(backend, "error").Inc()
		return
	}
	uploadsTotal.WithLabelValues(backend, "ok").Inc()
	uploadBytes.WithLabelValues(backend).Add(float64(n))
}
